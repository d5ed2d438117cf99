package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"replyflow/internal/app/replies/entity"
	"replyflow/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// reviewRepository реализует ReviewRepository для работы с MongoDB
type reviewRepository struct {
	collection *mongo.Collection
}

// NewReviewRepository создает новый репозиторий отзывов
// Создает уникальный составной индекс (business_id, external_review_id):
// он закрывает гонку lookup-then-insert при повторной доставке уведомлений
func NewReviewRepository(db *mongo.Database) ReviewRepository {
	collection := db.Collection("reviews")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uniqueIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "business_id", Value: 1},
			{Key: "external_review_id", Value: 1},
		},
		Options: options.Index().SetName("business_external_review_idx").SetUnique(true),
	}

	if _, err := collection.Indexes().CreateOne(ctx, uniqueIndex); err != nil {
		// Индекс может уже существовать, сервис продолжает работу
		logger.Warn().Err(err).Msg("failed to create unique review index")
	}

	statusIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "received_at", Value: 1},
		},
		Options: options.Index().SetName("status_received_idx"),
	}

	if _, err := collection.Indexes().CreateOne(ctx, statusIndex); err != nil {
		logger.Warn().Err(err).Msg("failed to create status index")
	}

	return &reviewRepository{collection: collection}
}

// Create создает новый отзыв
// Нарушение уникального индекса транслируется в ErrDuplicateReview
func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	if review.ReceivedAt.IsZero() {
		review.ReceivedAt = time.Now()
	}

	result, err := r.collection.InsertOne(ctx, review)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateReview
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		review.ID = oid
	}

	return nil
}

// GetByID получает отзыв по ID
func (r *reviewRepository) GetByID(ctx context.Context, id string) (*entity.Review, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid review ID: %w", err)
	}

	var review entity.Review
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&review)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return &review, nil
}

// FindByExternalReviewID ищет отзыв по паре (business_id, external_review_id)
// Используется для идемпотентной проверки перед вставкой
func (r *reviewRepository) FindByExternalReviewID(ctx context.Context, businessID, externalReviewID string) (*entity.Review, error) {
	filter := bson.M{
		"business_id":        businessID,
		"external_review_id": externalReviewID,
	}

	var review entity.Review
	err := r.collection.FindOne(ctx, filter).Decode(&review)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to find review: %w", err)
	}

	return &review, nil
}

// GetByBusinessID получает все отзывы бизнеса, новые первыми
func (r *reviewRepository) GetByBusinessID(ctx context.Context, businessID string) ([]entity.Review, error) {
	filter := bson.M{"business_id": businessID}
	opts := options.Find().SetSort(bson.D{{Key: "received_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var reviews []entity.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}

	return reviews, nil
}

// SetAIReply сохраняет сгенерированный ответ и время генерации
func (r *reviewRepository) SetAIReply(ctx context.Context, id string, reply string, generatedAt time.Time) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid review ID: %w", err)
	}

	update := bson.M{
		"$set": bson.M{
			"ai_reply":    reply,
			"ai_reply_at": generatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to set ai reply: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// SetStatus безусловно выставляет статус отзыва
// Допустимо только из автоматического пайплайна - он единственный владелец строки
func (r *reviewRepository) SetStatus(ctx context.Context, id string, status entity.ReviewStatus) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid review ID: %w", err)
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// SetStatusFrom меняет статус только из допустимого исходного
func (r *reviewRepository) SetStatusFrom(ctx context.Context, id string, to entity.ReviewStatus, from ...entity.ReviewStatus) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid review ID: %w", err)
	}

	filter := bson.M{
		"_id":    objectID,
		"status": bson.M{"$in": from},
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"status": to}})
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	if result.MatchedCount == 0 {
		return r.conflictOrNotFound(ctx, objectID)
	}

	return nil
}

// MarkPosted выставляет статус posted вместе с данными публикации
func (r *reviewRepository) MarkPosted(ctx context.Context, id string, reply, actor string, postedAt time.Time, edited bool, from ...entity.ReviewStatus) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid review ID: %w", err)
	}

	filter := bson.M{
		"_id":    objectID,
		"status": bson.M{"$in": from},
	}

	update := bson.M{
		"$set": bson.M{
			"status":       entity.StatusPosted,
			"posted_reply": reply,
			"posted_at":    postedAt,
			"posted_by":    actor,
			"edited":       edited,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark review posted: %w", err)
	}

	if result.MatchedCount == 0 {
		return r.conflictOrNotFound(ctx, objectID)
	}

	return nil
}

// ListStuckPending возвращает отзывы без сгенерированного ответа старше cutoff
// Их обработка не запустилась (например, Kafka была недоступна при ingest)
func (r *reviewRepository) ListStuckPending(ctx context.Context, olderThan time.Time) ([]entity.Review, error) {
	filter := bson.M{
		"status":      entity.StatusPending,
		"received_at": bson.M{"$lt": olderThan},
		"$or": []bson.M{
			{"ai_reply": bson.M{"$exists": false}},
			{"ai_reply": ""},
		},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find stuck reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var reviews []entity.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode stuck reviews: %w", err)
	}

	return reviews, nil
}

// conflictOrNotFound различает отсутствующий отзыв и несовпавший статус
func (r *reviewRepository) conflictOrNotFound(ctx context.Context, objectID primitive.ObjectID) error {
	err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrReviewNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check review: %w", err)
	}
	return ErrStatusConflict
}
