package driving

import "context"

// ReindexTrigger accepts document sync notifications for asynchronous
// processing. Implemented by the reindex service.
type ReindexTrigger interface {
	// Submit queues a reindex of the given document. It never blocks on
	// fetch or embedding work. Returns domain.ErrPoolSaturated when the
	// background pool cannot take the job; callers acknowledge the
	// notification either way.
	Submit(ctx context.Context, documentID string) error
}
