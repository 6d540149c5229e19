package history

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/catxpapa/catxframeup/pkg/project"
)

// DefaultMongoDatabase is used when no database name is configured.
const DefaultMongoDatabase = "frameup"

const mongoCollection = "history"

// MongoStore keeps entries in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// mongoDoc is the stored BSON layout. The project document is kept as its
// JSON encoding so all backends store identical bytes.
type mongoDoc struct {
	ID       string    `bson:"_id"`
	SaveTime time.Time `bson:"saveTime"`
	Document []byte    `bson:"document"`
	PNG      []byte    `bson:"png,omitempty"`
	HasImage bool      `bson:"hasImage"`
}

// NewMongoStore connects to uri and uses the history collection of
// database.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	if database == "" {
		database = DefaultMongoDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	coll := client.Database(database).Collection(mongoCollection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "saveTime", Value: -1}}})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("create mongo index: %w", err)
	}
	return &MongoStore{client: client, coll: coll}, nil
}

func (s *MongoStore) Save(ctx context.Context, doc project.Document, png []byte) (Entry, error) {
	e := newEntry(doc, png)
	data, err := marshalDocument(e.Document)
	if err != nil {
		return Entry{}, err
	}
	_, err = s.coll.InsertOne(ctx, mongoDoc{
		ID:       e.ID,
		SaveTime: e.SaveTime,
		Document: data,
		PNG:      png,
		HasImage: e.HasImage,
	})
	if err != nil {
		return Entry{}, fmt.Errorf("insert entry: %w", err)
	}
	return e, nil
}

func (s *MongoStore) find(ctx context.Context, id string, opts ...*options.FindOneOptions) (mongoDoc, error) {
	var md mongoDoc
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}, opts...).Decode(&md)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return mongoDoc{}, notFound(id)
	}
	if err != nil {
		return mongoDoc{}, fmt.Errorf("find entry: %w", err)
	}
	return md, nil
}

func (md mongoDoc) entry() (Entry, error) {
	e := Entry{ID: md.ID, SaveTime: md.SaveTime.UTC(), HasImage: md.HasImage, PNG: md.PNG}
	doc, err := unmarshalDocument(md.ID, md.Document)
	if err != nil {
		return Entry{}, err
	}
	e.Document = doc
	return e, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (Entry, error) {
	md, err := s.find(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	return md.entry()
}

func (s *MongoStore) Image(ctx context.Context, id string) ([]byte, error) {
	md, err := s.find(ctx, id, options.FindOne().SetProjection(bson.D{{Key: "png", Value: 1}}))
	if err != nil {
		return nil, err
	}
	if len(md.PNG) == 0 {
		return nil, notFound(id)
	}
	return md.PNG, nil
}

func (s *MongoStore) List(ctx context.Context) ([]Entry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "saveTime", Value: -1}}).
		SetProjection(bson.D{{Key: "png", Value: 0}})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer cur.Close(ctx)

	entries := []Entry{}
	for cur.Next(ctx) {
		var md mongoDoc
		if err := cur.Decode(&md); err != nil {
			return nil, fmt.Errorf("decode entry: %w", err)
		}
		e, err := md.entry()
		if err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, cur.Err()
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

func (s *MongoStore) Clear(ctx context.Context) (int, error) {
	res, err := s.coll.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return int(res.DeletedCount), nil
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

var _ Store = (*MongoStore)(nil)
