package storage

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/FanzCEO/FanzDash-sub000/internal/audit"
)

// MongoStore is the durable repository for production deployments. Records
// are stored ciphertext-only, exactly as the vault hands them over.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongoStore(ctx context.Context, uri, dbName, collName string) (*MongoStore, error) {
	cli, coll, err := connectCollection(ctx, uri, dbName, collName)
	if err != nil {
		return nil, err
	}
	// Scans filter by owner and by type; index both.
	_, _ = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "data_type", Value: 1}},
	})
	return &MongoStore{client: cli, coll: coll}, nil
}

func connectCollection(ctx context.Context, uri, dbName, collName string) (*mongo.Client, *mongo.Collection, error) {
	if uri == "" {
		return nil, nil, errors.New("storage: mongo uri is empty")
	}
	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, err
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := cli.Ping(pctx, nil); err != nil {
		_ = cli.Disconnect(ctx)
		return nil, nil, err
	}
	return cli, cli.Database(dbName).Collection(collName), nil
}

func (m *MongoStore) Put(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return errors.New("storage: empty record id")
	}
	_, err := m.coll.ReplaceOne(
		ctx,
		bson.M{"_id": rec.ID},
		rec,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (m *MongoStore) Get(ctx context.Context, id string) (Record, error) {
	var rec Record
	err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

func (m *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := m.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoStore) List(ctx context.Context) ([]Record, error) {
	cur, err := m.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Record
	for cur.Next(ctx) {
		var rec Record
		if err := cur.Decode(&rec); err == nil {
			out = append(out, rec)
		}
	}
	return out, cur.Err()
}

func (m *MongoStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// MongoAuditSink appends every access-log entry to a collection. Unlike the
// capped in-memory log this grows unbounded, which is the point: the audit
// trail must survive the process.
type MongoAuditSink struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongoAuditSink(ctx context.Context, uri, dbName, collName string) (*MongoAuditSink, error) {
	cli, coll, err := connectCollection(ctx, uri, dbName, collName)
	if err != nil {
		return nil, err
	}
	_, _ = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "record_id", Value: 1}, {Key: "at", Value: 1}},
	})
	return &MongoAuditSink{client: cli, coll: coll}, nil
}

func (s *MongoAuditSink) Append(ctx context.Context, e audit.Entry) error {
	_, err := s.coll.InsertOne(ctx, e)
	return err
}

func (s *MongoAuditSink) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
