package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	storagedomain "github.com/smallbiznis/cotiza/internal/storage/domain"
	"github.com/smallbiznis/cotiza/pkg/db/pagination"
)

type Service interface {
	CreateDraft(ctx context.Context, actor Actor, req CreateDraftRequest) (*Order, error)
	Get(ctx context.Context, actor Actor, id snowflake.ID) (*OrderDetail, error)
	List(ctx context.Context, actor Actor, status Status, page pagination.Pagination) ([]Order, *pagination.PageInfo, error)
	ListMine(ctx context.Context, actor Actor, page pagination.Pagination) ([]Order, *pagination.PageInfo, error)

	// AddItem merges quantities when the product is already on the order.
	AddItem(ctx context.Context, actor Actor, orderID snowflake.ID, input AddItemInput) (*OrderDetail, error)
	UpdateItem(ctx context.Context, actor Actor, orderID, itemID snowflake.ID, edit ItemEdit) (*OrderDetail, error)
	RemoveItem(ctx context.Context, actor Actor, orderID, itemID snowflake.ID) (*OrderDetail, error)

	// AttachEvidence stores the supporting document and links it to the
	// item, replacing any previous evidence.
	AttachEvidence(ctx context.Context, actor Actor, orderID, itemID snowflake.ID, filename, contentType string, data []byte) (*OrderItem, error)
	Evidence(ctx context.Context, actor Actor, orderID, itemID snowflake.ID) (*storagedomain.Blob, error)

	// Send requires at least one item and evidence on every item.
	Send(ctx context.Context, actor Actor, id snowflake.ID) (*OrderDetail, error)
	// ResolveItem approves or rejects one pending item (admin only) and
	// recomputes the order's progress and lifecycle state.
	ResolveItem(ctx context.Context, actor Actor, orderID, itemID snowflake.ID, req ResolveItemRequest) (*OrderDetail, error)
	Delete(ctx context.Context, actor Actor, id snowflake.ID) error
}

type CreateDraftRequest struct {
	SupplierName string `json:"supplier_name"`
	Notes        string `json:"notes"`
}

type AddItemInput struct {
	ProductID snowflake.ID     `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Cost      *decimal.Decimal `json:"cost"`
}

type ItemEdit struct {
	Quantity *int             `json:"quantity"`
	Cost     *decimal.Decimal `json:"cost"`
}

type ResolveItemRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}

// OrderDetail is an order with its lines.
type OrderDetail struct {
	Order Order       `json:"order"`
	Items []OrderItem `json:"items"`
}
