// Package mongo implements places persistence over MongoDB.
//
// Users embed their place set as an array of ids, and places carry a creator
// field. Cross-document writes use a session transaction, which needs a
// replica set or sharded cluster.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/louisbranch/places/internal/services/places/place"
	"github.com/louisbranch/places/internal/services/places/storage"
	"github.com/louisbranch/places/internal/services/places/user"
)

const (
	usersCollection  = "users"
	placesCollection = "places"
	closeTimeout     = 5 * time.Second
)

type userDocument struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	Name         string    `bson:"name"`
	PasswordHash string    `bson:"password"`
	ImageRef     string    `bson:"image"`
	Places       []string  `bson:"places"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

type locationDocument struct {
	Lat float64 `bson:"lat"`
	Lng float64 `bson:"lng"`
}

type placeDocument struct {
	ID          string           `bson:"_id"`
	Title       string           `bson:"title"`
	Description string           `bson:"description"`
	Address     string           `bson:"address"`
	Location    locationDocument `bson:"location"`
	ImageRef    string           `bson:"image"`
	Creator     string           `bson:"creator"`
	CreatedAt   time.Time        `bson:"createdAt"`
	UpdatedAt   time.Time        `bson:"updatedAt"`
}

// Store implements storage.Store over a MongoDB database.
type Store struct {
	client *mongo.Client
	users  *mongo.Collection
	places *mongo.Collection
}

var _ storage.Store = (*Store)(nil)

// Open connects to uri, selects database and ensures indexes.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	if strings.TrimSpace(database) == "" {
		return nil, fmt.Errorf("mongo database is required")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	store := &Store{
		client: client,
		users:  db.Collection(usersCollection),
		places: db.Collection(placesCollection),
	}
	if err := store.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return store, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_unique"),
	}); err != nil {
		return fmt.Errorf("create users email index: %w", err)
	}
	if _, err := s.places.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "creator", Value: 1}},
		Options: options.Index().SetName("places_creator"),
	}); err != nil {
		return fmt.Errorf("create places creator index: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// WithinTransaction runs fn inside one session transaction with majority
// read and write concern. fn runs at most once; a failed transaction is
// aborted and its error returned to the caller.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.client == nil {
		return fmt.Errorf("storage is not configured")
	}
	if fn == nil {
		return fmt.Errorf("transaction func is required")
	}

	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(context.Background())

	txOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	return mongo.WithSession(ctx, session, func(sc mongo.SessionContext) error {
		if err := session.StartTransaction(txOpts); err != nil {
			return fmt.Errorf("start transaction: %w", err)
		}
		if err := fn(sc, txStore{users: s.users, places: s.places}); err != nil {
			abortCtx, cancel := context.WithTimeout(context.WithoutCancel(sc), closeTimeout)
			defer cancel()
			_ = session.AbortTransaction(abortCtx)
			return err
		}
		if err := session.CommitTransaction(sc); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		return nil
	})
}

// PutUser inserts a new user document.
func (s *Store) PutUser(ctx context.Context, u user.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.client == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(u.Email) == "" {
		return fmt.Errorf("email is required")
	}

	doc := userToDocument(u)
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

// GetUser fetches a user by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (user.User, error) {
	return s.findUser(ctx, bson.D{{Key: "_id", Value: userID}})
}

// GetUserByEmail fetches a user by normalized email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return s.findUser(ctx, bson.D{{Key: "email", Value: email}})
}

func (s *Store) findUser(ctx context.Context, filter bson.D) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}
	if s == nil || s.client == nil {
		return user.User{}, fmt.Errorf("storage is not configured")
	}

	var doc userDocument
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, storage.ErrNotFound
		}
		return user.User{}, fmt.Errorf("get user: %w", err)
	}
	return documentToUser(doc), nil
}

// ListUsers returns every user ordered by creation time.
func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	cursor, err := s.users.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	users := make([]user.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, documentToUser(doc))
	}
	return users, nil
}

// GetPlace fetches a place by ID.
func (s *Store) GetPlace(ctx context.Context, placeID string) (place.Place, error) {
	if err := ctx.Err(); err != nil {
		return place.Place{}, err
	}
	if s == nil || s.client == nil {
		return place.Place{}, fmt.Errorf("storage is not configured")
	}

	var doc placeDocument
	if err := s.places.FindOne(ctx, bson.D{{Key: "_id", Value: placeID}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return place.Place{}, storage.ErrNotFound
		}
		return place.Place{}, fmt.Errorf("get place: %w", err)
	}
	return documentToPlace(doc), nil
}

// ListPlacesByUser resolves the user's place set in order.
func (s *Store) ListPlacesByUser(ctx context.Context, userID string) ([]place.Place, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(u.PlaceIDs) == 0 {
		return []place.Place{}, nil
	}

	cursor, err := s.places.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: u.PlaceIDs}}}})
	if err != nil {
		return nil, fmt.Errorf("list places: %w", err)
	}
	var docs []placeDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode places: %w", err)
	}
	byID := make(map[string]placeDocument, len(docs))
	for _, doc := range docs {
		byID[doc.ID] = doc
	}
	places := make([]place.Place, 0, len(docs))
	for _, id := range u.PlaceIDs {
		if doc, ok := byID[id]; ok {
			places = append(places, documentToPlace(doc))
		}
	}
	return places, nil
}

// UpdatePlace replaces the mutable fields of a place.
func (s *Store) UpdatePlace(ctx context.Context, p place.Place) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.client == nil {
		return fmt.Errorf("storage is not configured")
	}

	result, err := s.places.UpdateOne(ctx, bson.D{{Key: "_id", Value: p.ID}}, bson.D{{Key: "$set", Value: bson.D{
		{Key: "title", Value: p.Title},
		{Key: "description", Value: p.Description},
		{Key: "updatedAt", Value: p.UpdatedAt.UTC()},
	}}})
	if err != nil {
		return fmt.Errorf("update place: %w", err)
	}
	if result.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func userToDocument(u user.User) userDocument {
	placeIDs := u.PlaceIDs
	if placeIDs == nil {
		placeIDs = []string{}
	}
	return userDocument{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		ImageRef:     u.ImageRef,
		Places:       placeIDs,
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
	}
}

func documentToUser(doc userDocument) user.User {
	placeIDs := doc.Places
	if placeIDs == nil {
		placeIDs = []string{}
	}
	return user.User{
		ID:           doc.ID,
		Email:        doc.Email,
		Name:         doc.Name,
		PasswordHash: doc.PasswordHash,
		ImageRef:     doc.ImageRef,
		PlaceIDs:     placeIDs,
		CreatedAt:    doc.CreatedAt.UTC(),
		UpdatedAt:    doc.UpdatedAt.UTC(),
	}
}

func placeToDocument(p place.Place) placeDocument {
	return placeDocument{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Address:     p.Address,
		Location:    locationDocument{Lat: p.Location.Lat, Lng: p.Location.Lng},
		ImageRef:    p.ImageRef,
		Creator:     p.CreatorID,
		CreatedAt:   p.CreatedAt.UTC(),
		UpdatedAt:   p.UpdatedAt.UTC(),
	}
}

func documentToPlace(doc placeDocument) place.Place {
	return place.Place{
		ID:          doc.ID,
		Title:       doc.Title,
		Description: doc.Description,
		Address:     doc.Address,
		Location:    place.Coordinates{Lat: doc.Location.Lat, Lng: doc.Location.Lng},
		ImageRef:    doc.ImageRef,
		CreatorID:   doc.Creator,
		CreatedAt:   doc.CreatedAt.UTC(),
		UpdatedAt:   doc.UpdatedAt.UTC(),
	}
}
