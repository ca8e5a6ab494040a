package authorization

import "context"

// Service answers whether an actor may perform an action on an object class.
type Service interface {
	Authorize(ctx context.Context, actor string, object string, action string) error
}
