package repository

import (
	"context"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"lapakda/internal/domain/repository"
	"lapakda/pkg/errors"
	"lapakda/pkg/logger"
)

const (
	usersCollection     = "users"
	productsCollection  = "products"
	cartCollection      = "cart"
	addressesCollection = "addresses"
	ordersCollection    = "orders"
	roomsCollection     = "chatRooms"
	messagesCollection  = "messages"

	// maxBatchWrites is Firestore's limit on writes per batch or transaction.
	maxBatchWrites = 500
)

func readErr(resource string, err error) error {
	if status.Code(err) == codes.NotFound {
		return errors.NotFound(resource, err)
	}
	return errors.Internal("Failed to get "+resource, err)
}

// passThrough keeps AppErrors raised inside a transaction intact and wraps
// anything else.
func passThrough(message string, err error) error {
	if _, ok := errors.As(err); ok {
		return err
	}
	return errors.Internal(message, err)
}

func decodeAll[T any](iter *firestore.DocumentIterator) ([]*T, error) {
	defer iter.Stop()
	out := make([]*T, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		var v T
		if err := doc.DataTo(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, nil
}

func decodeSnapshots[T any](docs []*firestore.DocumentSnapshot) ([]*T, error) {
	out := make([]*T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := doc.DataTo(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, nil
}

// watchQuery runs q as a live query until ctx ends or the returned func is
// called, handing every snapshot's documents to onSnapshot.
func watchQuery(ctx context.Context, q firestore.Query, name string, onSnapshot func([]*firestore.DocumentSnapshot)) repository.Unsubscribe {
	ctx, cancel := context.WithCancel(ctx)
	it := q.Snapshots(ctx)

	var once sync.Once
	stop := func() { once.Do(cancel) }

	go func() {
		// Next unblocks on cancellation; Stop must not race with it.
		defer it.Stop()
		defer stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if ctx.Err() != nil || err == iterator.Done || status.Code(err) == codes.Canceled {
					return
				}
				logger.L().Error().Err(err).Str("query", name).Msg("live query stopped")
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				logger.L().Error().Err(err).Str("query", name).Msg("reading snapshot documents")
				continue
			}
			onSnapshot(docs)
		}
	}()

	return stop
}
