package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"

	"lapakda/internal/domain/entity"
	"lapakda/internal/domain/repository"
	"lapakda/pkg/errors"
)

type firestoreOrderRepository struct {
	client *firestore.Client
}

func NewFirestoreOrderRepository(client *firestore.Client) repository.OrderRepository {
	return &firestoreOrderRepository{
		client: client,
	}
}

func (r *firestoreOrderRepository) Place(ctx context.Context, order *entity.Order, consumedCartItemIDs []string) error {
	if len(consumedCartItemIDs)+1 > maxBatchWrites {
		return errors.BadRequest("Too many items in a single order", nil)
	}
	if order.ID == "" {
		order.ID = r.client.Collection(ordersCollection).NewDoc().ID
	}

	batch := r.client.Batch()
	batch.Create(r.client.Collection(ordersCollection).Doc(order.ID), order)
	for _, id := range consumedCartItemIDs {
		batch.Delete(r.client.Collection(cartCollection).Doc(id))
	}
	if _, err := batch.Commit(ctx); err != nil {
		return errors.Internal("Failed to create order", err)
	}
	return nil
}

func (r *firestoreOrderRepository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	doc, err := r.client.Collection(ordersCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, readErr("Order", err)
	}
	var order entity.Order
	if err := doc.DataTo(&order); err != nil {
		return nil, errors.Internal("Failed to parse order", err)
	}
	return &order, nil
}

func (r *firestoreOrderRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Order, error) {
	query := r.client.Collection(ordersCollection).
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc)

	orders, err := decodeAll[entity.Order](query.Documents(ctx))
	if err != nil {
		return nil, errors.Internal("Failed to list orders", err)
	}
	return orders, nil
}

func (r *firestoreOrderRepository) List(ctx context.Context, status string) ([]*entity.Order, error) {
	query := r.client.Collection(ordersCollection).Query
	if status != "" {
		query = query.Where("status", "==", status)
	}
	query = query.OrderBy("createdAt", firestore.Desc)

	orders, err := decodeAll[entity.Order](query.Documents(ctx))
	if err != nil {
		return nil, errors.Internal("Failed to list orders", err)
	}
	return orders, nil
}

func (r *firestoreOrderRepository) update(ctx context.Context, id string, updates []firestore.Update) error {
	_, err := r.client.Collection(ordersCollection).Doc(id).Update(ctx, updates)
	if err != nil {
		return readErr("Order", err)
	}
	return nil
}

func (r *firestoreOrderRepository) UpdateStatus(ctx context.Context, id, status string, at time.Time) error {
	return r.update(ctx, id, []firestore.Update{
		{Path: "status", Value: status},
		{Path: "updatedAt", Value: at},
	})
}

func (r *firestoreOrderRepository) UpdatePaymentStatus(ctx context.Context, id, paymentStatus string, at time.Time) error {
	return r.update(ctx, id, []firestore.Update{
		{Path: "paymentStatus", Value: paymentStatus},
		{Path: "updatedAt", Value: at},
	})
}

func (r *firestoreOrderRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(entity.OrderStatuses))
	for _, s := range entity.OrderStatuses {
		q := r.client.Collection(ordersCollection).Where("status", "==", s)
		res, err := q.NewAggregationQuery().WithCount("n").Get(ctx)
		if err != nil {
			return nil, errors.Internal("Failed to count orders", err)
		}
		counts[s] = aggregateInt(res["n"])
	}
	return counts, nil
}

func aggregateInt(v interface{}) int {
	switch n := v.(type) {
	case *firestorepb.Value:
		return int(n.GetIntegerValue())
	case int64:
		return int(n)
	}
	return 0
}
