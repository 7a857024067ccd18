package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/qepting91/reddit-grid/internal/domain"
)

const (
	starsCollection    = "stars"
	countersCollection = "star_counters"
)

var _ domain.GroupStore = (*MongoStore)(nil)

// MongoStore orders each group by a per-group counter kept in
// star_counters, so several processes sharing a database agree on order.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	counters   *mongo.Collection
}

type starDocument struct {
	GroupName string    `bson:"group_name"`
	PostID    string    `bson:"post_id"`
	Seq       int64     `bson:"seq"`
	PostData  string    `bson:"post_data"`
	CreatedAt time.Time `bson:"created_at"`
}

func NewMongoStore(ctx context.Context, mongoURI, databaseName string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	collection := client.Database(databaseName).Collection(starsCollection)
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "group_name", Value: 1}, {Key: "seq", Value: 1}}},
		{Keys: bson.D{{Key: "post_id", Value: 1}}},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return &MongoStore{
		client:     client,
		collection: collection,
		counters:   client.Database(databaseName).Collection(countersCollection),
	}, nil
}

// AppendPost inserts one document; single-document writes are atomic in
// MongoDB, so no session is needed.
func (s *MongoStore) AppendPost(ctx context.Context, group string, post domain.Post) error {
	data, err := encodePost(post)
	if err != nil {
		return err
	}

	seq, err := s.nextSeq(ctx, group)
	if err != nil {
		return err
	}

	doc := starDocument{
		GroupName: group,
		PostID:    post.ID,
		Seq:       seq,
		PostData:  data,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert star %s into %s: %w", post.ID, group, err)
	}
	return nil
}

// nextSeqUpdate increments the group's counter, creating it at 1.
func nextSeqUpdate(group string) (bson.M, bson.M, *options.FindOneAndUpdateOptions) {
	filter := bson.M{"_id": group}
	update := bson.M{"$inc": bson.M{"seq": int64(1)}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	return filter, update, opts
}

func (s *MongoStore) nextSeq(ctx context.Context, group string) (int64, error) {
	filter, update, opts := nextSeqUpdate(group)
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	if err := s.counters.FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter); err != nil {
		return 0, fmt.Errorf("failed to advance counter for %s: %w", group, err)
	}
	return counter.Seq, nil
}

func (s *MongoStore) GroupPosts(ctx context.Context, group string) ([]domain.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}, {Key: "created_at", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.M{"group_name": group}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find group %s: %w", group, err)
	}
	defer cursor.Close(ctx)

	var docs []starDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode group %s: %w", group, err)
	}

	posts := make([]domain.Post, 0, len(docs))
	for _, doc := range docs {
		p, err := decodePost(doc.PostData)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

func (s *MongoStore) ListGroups(ctx context.Context) ([]string, error) {
	values, err := s.collection.Distinct(ctx, "group_name", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	groups := make([]string, 0, len(values))
	for _, v := range values {
		if name, ok := v.(string); ok {
			groups = append(groups, name)
		}
	}
	sort.Strings(groups)
	return groups, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
