// Package mongo implements the entity store on MongoDB, the document
// database backing the service.
package mongo

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/onto-forge/entities-service/pkg/entity"
	"github.com/onto-forge/entities-service/pkg/store"
)

// Options configures the MongoDB store.
type Options struct {
	URI        string
	Database   string
	Collection string
	Username   string
	Password   string

	// CAFile and CertificateFile configure TLS towards the cluster:
	// a CA bundle to trust and an optional client certificate (X.509 auth).
	CAFile          string
	CertificateFile string

	Logger hclog.Logger
}

// Store keeps entities in a MongoDB collection with a unique index on the
// entity URI, so the collection can never hold two property sets under the
// same (namespace, name, version) triple.
type Store struct {
	coll *mongo.Collection
	log  hclog.Logger
}

var (
	_ store.Store  = (*Store)(nil)
	_ store.Lister = (*Store)(nil)
)

func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.URI == "" {
		opts.URI = "mongodb://localhost:27017"
	}
	if opts.Database == "" {
		opts.Database = "entities_service"
	}
	if opts.Collection == "" {
		opts.Collection = "entities"
	}
	log := opts.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}

	clientOpts := options.Client().ApplyURI(opts.URI)
	if opts.Username != "" {
		clientOpts.SetAuth(options.Credential{
			Username: opts.Username,
			Password: opts.Password,
		})
	}

	if opts.CAFile != "" || opts.CertificateFile != "" {
		tlsConfig, err := newTLSConfig(opts.CAFile, opts.CertificateFile)
		if err != nil {
			return nil, err
		}
		clientOpts.SetTLSConfig(tlsConfig)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}

	s := &Store{
		coll: client.Database(opts.Database).Collection(opts.Collection),
		log:  log,
	}
	if err := s.initialize(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// initialize creates the unique URI index.
func (s *Store) initialize(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "uri", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("creating URI index: %w", err)
	}
	return nil
}

func (s *Store) Lookup(ctx context.Context, id entity.Identifier) (*entity.Entity, error) {
	var e entity.Entity
	err := s.coll.FindOne(ctx, bson.M{"uri": id.URI()}).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, &store.ServerError{Detail: err.Error()}
	}
	return &e, nil
}

func (s *Store) Create(ctx context.Context, e *entity.Entity) error {
	_, err := s.coll.InsertOne(ctx, e)
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrConflict
	}
	if err != nil {
		return &store.ServerError{Detail: err.Error()}
	}
	s.log.Debug("entity created", "uri", e.URI)
	return nil
}

func (s *Store) Update(ctx context.Context, e *entity.Entity) error {
	result, err := s.coll.ReplaceOne(ctx, bson.M{"uri": e.URI}, e)
	if err != nil {
		return &store.ServerError{Detail: err.Error()}
	}
	if result.MatchedCount == 0 {
		return store.ErrNotFound
	}
	s.log.Debug("entity updated", "uri", e.URI)
	return nil
}

func (s *Store) List(ctx context.Context, namespace string) ([]*entity.Entity, error) {
	filter := bson.M{}
	if namespace != "" {
		filter["namespace"] = namespace
	}

	cursor, err := s.coll.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "uri", Value: 1}}))
	if err != nil {
		return nil, &store.ServerError{Detail: err.Error()}
	}
	defer cursor.Close(ctx)

	var entities []*entity.Entity
	if err := cursor.All(ctx, &entities); err != nil {
		return nil, &store.ServerError{Detail: err.Error()}
	}
	return entities, nil
}

func newTLSConfig(caFile, certFile string) (*tls.Config, error) {
	cfg := &tls.Config{}

	if caFile != "" {
		pem, err := os.ReadFile(caFile)
		if err != nil {
			return nil, fmt.Errorf("reading CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", caFile)
		}
		cfg.RootCAs = pool
	}

	if certFile != "" {
		cert, err := tls.LoadX509KeyPair(certFile, certFile)
		if err != nil {
			return nil, fmt.Errorf("loading client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	return cfg, nil
}
