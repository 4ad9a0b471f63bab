package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/listenupapp/catalog-server/internal/domain"
	"github.com/listenupapp/catalog-server/internal/store"
)

// GetAuthor returns the author with the given ID.
func (s *Store) GetAuthor(ctx context.Context, id string) (*domain.Author, error) {
	return s.findAuthor(ctx, bson.M{"_id": id})
}

// GetAuthorByName returns the author with the given name.
func (s *Store) GetAuthorByName(ctx context.Context, name string) (*domain.Author, error) {
	return s.findAuthor(ctx, bson.M{"name": name})
}

func (s *Store) findAuthor(ctx context.Context, filter bson.M) (*domain.Author, error) {
	var doc authorDocument
	if err := s.authors.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translateError(err)
	}
	return doc.toDomain(), nil
}

// GetOrCreateAuthor upserts by name with $setOnInsert, so an existing author is
// returned untouched. Two racing upserts can both miss and one then fails on the
// unique name index; that caller re-reads the winner.
func (s *Store) GetOrCreateAuthor(ctx context.Context, candidate *domain.Author) (*domain.Author, bool, error) {
	insert := bson.M{
		"_id":        candidate.ID,
		"created_at": candidate.CreatedAt,
		"updated_at": candidate.UpdatedAt,
		"bookCount":  0,
	}
	if candidate.Born != nil {
		insert["born"] = *candidate.Born
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc authorDocument
	err := s.authors.FindOneAndUpdate(ctx,
		bson.M{"name": candidate.Name},
		bson.M{"$setOnInsert": insert},
		opts,
	).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		existing, getErr := s.GetAuthorByName(ctx, candidate.Name)
		if getErr != nil {
			return nil, false, fmt.Errorf("read author %q after upsert race: %w", candidate.Name, getErr)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("upsert author %q: %w", candidate.Name, translateError(err))
	}

	return doc.toDomain(), doc.ID == candidate.ID, nil
}

// UpdateAuthor sets the author's name and birth year. bookCount is left to $inc.
func (s *Store) UpdateAuthor(ctx context.Context, author *domain.Author) error {
	update := bson.M{
		"$set": bson.M{"name": author.Name, "updated_at": author.UpdatedAt},
	}
	if author.Born != nil {
		update["$set"].(bson.M)["born"] = *author.Born
	} else {
		update["$unset"] = bson.M{"born": ""}
	}

	res, err := s.authors.UpdateOne(ctx, bson.M{"_id": author.ID}, update)
	if err != nil {
		return fmt.Errorf("update author %s: %w", author.ID, translateError(err))
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// IncrementAuthorBookCount applies $inc, which is atomic on a single document.
func (s *Store) IncrementAuthorBookCount(ctx context.Context, id string, delta int) error {
	res, err := s.authors.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"bookCount": delta}, "$set": bson.M{"updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("increment book count %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListAuthors returns all authors ordered by name.
func (s *Store) ListAuthors(ctx context.Context) ([]*domain.Author, error) {
	return s.findAuthors(ctx, bson.M{})
}

func (s *Store) findAuthors(ctx context.Context, filter bson.M) ([]*domain.Author, error) {
	cur, err := s.authors.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find authors: %w", err)
	}

	var docs []authorDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode authors: %w", err)
	}

	authors := make([]*domain.Author, 0, len(docs))
	for _, d := range docs {
		authors = append(authors, d.toDomain())
	}
	return authors, nil
}

// CountAuthors returns the number of authors.
func (s *Store) CountAuthors(ctx context.Context) (int, error) {
	n, err := s.authors.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count authors: %w", err)
	}
	return int(n), nil
}

var errAuthorMissing = errors.New("author does not exist")
