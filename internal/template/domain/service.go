package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Template, error)
	Get(ctx context.Context, id snowflake.ID) (*Template, error)
	List(ctx context.Context) ([]Template, error)
	// Active returns enabled templates ordered by slot. Their count is the
	// number of margin columns new pricing computations carry.
	Active(ctx context.Context) ([]Template, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateRequest) (*Template, error)
	Delete(ctx context.Context, id snowflake.ID) error
	SetLogo(ctx context.Context, id snowflake.ID, blobID snowflake.ID) (*Template, error)
}

type CreateRequest struct {
	Slot       int    `json:"slot"`
	Name       string `json:"name"`
	City       string `json:"city"`
	Footer     string `json:"footer"`
	AccentHex  string `json:"accent_hex"`
	Conditions string `json:"conditions"`
	Active     *bool  `json:"active"`
}

type UpdateRequest struct {
	Name       *string `json:"name"`
	City       *string `json:"city"`
	Footer     *string `json:"footer"`
	AccentHex  *string `json:"accent_hex"`
	Conditions *string `json:"conditions"`
	Active     *bool   `json:"active"`
}
