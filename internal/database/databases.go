package database

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// DatabaseInfo describes a database on the server.
type DatabaseInfo struct {
	Name       string
	SizeOnDisk int64
	Empty      bool
}

// Server is the subset of a MongoDB client the listing functions need.
type Server interface {
	ListDatabases(ctx context.Context) ([]DatabaseInfo, error)
	ListCollectionNames(ctx context.Context, database string) ([]string, error)
}

// Mongo adapts a *mongo.Client to Server.
type Mongo struct {
	Client *mongo.Client
}

func (m Mongo) ListDatabases(ctx context.Context) ([]DatabaseInfo, error) {
	res, err := m.Client.ListDatabases(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	dbs := make([]DatabaseInfo, 0, len(res.Databases))
	for _, d := range res.Databases {
		dbs = append(dbs, DatabaseInfo{Name: d.Name, SizeOnDisk: d.SizeOnDisk, Empty: d.Empty})
	}
	return dbs, nil
}

func (m Mongo) ListCollectionNames(ctx context.Context, database string) ([]string, error) {
	return m.Client.Database(database).ListCollectionNames(ctx, bson.D{})
}

// ListDatabases returns all database names on the server, sorted.
func ListDatabases(ctx context.Context, s Server) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	dbs, err := s.ListDatabases(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing databases: %w", err)
	}

	names := make([]string, 0, len(dbs))
	for _, d := range dbs {
		names = append(names, d.Name)
	}
	sort.Strings(names)
	return names, nil
}

// DatabaseStats holds a database name with its size and collection count.
type DatabaseStats struct {
	Name            string
	SizeOnDisk      int64
	CollectionCount int
}

// ListDatabasesWithCounts returns every database with its collection count,
// sorted by name.
func ListDatabasesWithCounts(ctx context.Context, s Server) ([]DatabaseStats, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	dbs, err := s.ListDatabases(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing databases: %w", err)
	}

	results := make([]DatabaseStats, 0, len(dbs))
	for _, d := range dbs {
		colls, err := s.ListCollectionNames(ctx, d.Name)
		if err != nil {
			return nil, fmt.Errorf("listing collections of %s: %w", d.Name, err)
		}
		results = append(results, DatabaseStats{
			Name:            d.Name,
			SizeOnDisk:      d.SizeOnDisk,
			CollectionCount: len(colls),
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results, nil
}
