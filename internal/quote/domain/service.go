package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/cotiza/internal/catalog/domain"
	"github.com/smallbiznis/cotiza/internal/quote/pricing"
	"github.com/smallbiznis/cotiza/pkg/db/pagination"
)

type Service interface {
	CreateDraft(ctx context.Context, actor Actor, req CreateDraftRequest) (*Quote, error)
	Get(ctx context.Context, actor Actor, id snowflake.ID) (*QuoteDetail, error)
	ListDrafts(ctx context.Context, actor Actor, page pagination.Pagination) ([]Quote, *pagination.PageInfo, error)
	ListSent(ctx context.Context, actor Actor, page pagination.Pagination) ([]Quote, *pagination.PageInfo, error)
	ListMine(ctx context.Context, actor Actor, page pagination.Pagination) ([]Quote, *pagination.PageInfo, error)

	// AddItems snapshots each catalog subject and appends the lines in one
	// transaction; any unresolvable or mismatched subject fails the whole
	// call and nothing commits.
	AddItems(ctx context.Context, actor Actor, quoteID snowflake.ID, items []AddItemInput) (*QuoteDetail, error)
	UpdateItem(ctx context.Context, actor Actor, quoteID, itemID snowflake.ID, edit ItemEdit) (*QuoteDetail, error)
	RemoveItem(ctx context.Context, actor Actor, quoteID, itemID snowflake.ID) (*QuoteDetail, error)
	// ApplyBatch applies tax and per-item edits with partial success:
	// edits addressing unknown items are skipped and reported, the rest
	// commit, and totals are recomputed once.
	ApplyBatch(ctx context.Context, actor Actor, quoteID snowflake.ID, req BatchRequest) (*BatchResult, error)

	Send(ctx context.Context, actor Actor, id snowflake.ID) (*QuoteDetail, error)
	RetryDocuments(ctx context.Context, actor Actor, id snowflake.ID) (*QuoteDetail, error)
	Reopen(ctx context.Context, actor Actor, id snowflake.ID) (*QuoteDetail, error)
	Resolve(ctx context.Context, actor Actor, id snowflake.ID, status Status) (*QuoteDetail, error)
	Delete(ctx context.Context, actor Actor, id snowflake.ID) error

	Documents(ctx context.Context, actor Actor, id snowflake.ID) ([]QuoteDocument, error)
}

type CreateDraftRequest struct {
	Kind          catalogdomain.Kind `json:"kind"`
	CustomerName  string             `json:"customer_name"`
	CustomerEmail string             `json:"customer_email"`
	CustomerPhone string             `json:"customer_phone"`
	Notes         string             `json:"notes"`
	TaxPct        *decimal.Decimal   `json:"tax_pct"`
}

// AddItemInput declares one new line. Kind must match the quote's kind
// when set; Cost overrides the catalog snapshot; Margins may be shorter
// than the slot count and is padded with unset slots.
type AddItemInput struct {
	Kind      catalogdomain.Kind    `json:"kind"`
	SubjectID snowflake.ID          `json:"subject_id"`
	Quantity  int                   `json:"quantity"`
	Cost      *decimal.Decimal      `json:"cost"`
	Margins   *pricing.DecimalSlots `json:"margins"`
}

type ItemEdit struct {
	Quantity *int                  `json:"quantity"`
	Cost     *decimal.Decimal      `json:"cost"`
	Margins  *pricing.DecimalSlots `json:"margins"`
}

type BatchItemEdit struct {
	ItemID   snowflake.ID          `json:"item_id"`
	Quantity *int                  `json:"quantity"`
	Cost     *decimal.Decimal      `json:"cost"`
	Margins  *pricing.DecimalSlots `json:"margins"`
}

type BatchRequest struct {
	TaxPct *decimal.Decimal `json:"tax_pct"`
	Items  []BatchItemEdit  `json:"items"`
}

// BatchResult reports what a batch edit actually touched.
type BatchResult struct {
	Quote   *QuoteDetail   `json:"quote"`
	Updated int            `json:"updated"`
	Skipped []snowflake.ID `json:"skipped"`
}

// QuoteDetail is a quote with its lines.
type QuoteDetail struct {
	Quote Quote       `json:"quote"`
	Items []QuoteItem `json:"items"`
}
