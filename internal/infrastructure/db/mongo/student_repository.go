package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rosterdesk/roster/internal/core/domain"
)

type StudentRepository struct {
	col *mongo.Collection
}

func NewStudentRepository(db *mongo.Database) *StudentRepository {
	return &StudentRepository{col: db.Collection(domain.StudentsCollection)}
}

type mongoStudent struct {
	ID         primitive.ObjectID `bson:"_id"`
	Name       string             `bson:"name"`
	Class      string             `bson:"class"`
	Section    string             `bson:"section"`
	RollNumber string             `bson:"roll_number"`
	CreatedAt  time.Time          `bson:"created_at"`
}

// List returns every student ordered by creation time, ties broken by id.
func (r *StudentRepository) List(ctx context.Context) ([]*domain.Student, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find students: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoStudent
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode students: %w", err)
	}

	out := make([]*domain.Student, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// Create inserts s and fills in the store-assigned ID.
func (r *StudentRepository) Create(ctx context.Context, s *domain.Student) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoStudent{
		ID:         primitive.NewObjectID(),
		Name:       s.Name,
		Class:      s.Class,
		Section:    s.Section,
		RollNumber: s.RollNumber,
		CreatedAt:  s.CreatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert student: %w", err)
	}
	s.ID = doc.ID.Hex()
	return nil
}

func (r *StudentRepository) FindByID(ctx context.Context, id string) (*domain.Student, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidStudentID
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoStudent
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrStudentNotFound
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrInvalidStudentID
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}

// EnsureIndexes creates the index backing the list ordering.
func (r *StudentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
	})
	return err
}

func (d mongoStudent) toDomain() *domain.Student {
	return &domain.Student{
		ID:         d.ID.Hex(),
		Name:       d.Name,
		Class:      d.Class,
		Section:    d.Section,
		RollNumber: d.RollNumber,
		CreatedAt:  d.CreatedAt.UTC(),
	}
}
