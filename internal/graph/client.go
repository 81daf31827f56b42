package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/tuannguyen/text2sql/internal/config"
	"github.com/tuannguyen/text2sql/internal/errors"
	"github.com/tuannguyen/text2sql/internal/logging"
)

// Querier is the read/write surface the retrieval engine needs from the
// graph store
type Querier interface {
	ExecuteRead(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
	ExecuteWrite(ctx context.Context, query string, params map[string]any) error
}

// Client wraps a Neo4j driver with session management
type Client struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *logging.Logger
}

// NewClient creates a Neo4j client from configuration
func NewClient(cfg config.Neo4jConfig, logger *logging.Logger) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.User, cfg.Password, ""),
	)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeGraph, "failed to create driver for %s", cfg.URI)
	}

	return &Client{
		driver:   driver,
		database: cfg.Database,
		logger:   logger,
	}, nil
}

// VerifyConnectivity checks that the store is reachable
func (c *Client) VerifyConnectivity(ctx context.Context) error {
	if err := c.driver.VerifyConnectivity(ctx); err != nil {
		return errors.Wrap(err, errors.ErrTypeGraph, "graph store is not reachable").
			WithSuggestion("Check the NEO4J_URI, user, and password settings")
	}

	return nil
}

// Close releases the underlying driver
func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// ExecuteRead runs a read query and returns the records as attribute maps
func (c *Client) ExecuteRead(
	ctx context.Context,
	query string,
	params map[string]any,
) ([]map[string]any, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeGraph, "read query failed")
	}

	records, err := result.Collect(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeGraph, "failed to collect query results")
	}

	rows := make([]map[string]any, 0, len(records))
	for _, record := range records {
		rows = append(rows, record.AsMap())
	}

	return rows, nil
}

// ExecuteWrite runs a single write query inside a managed transaction
func (c *Client) ExecuteWrite(ctx context.Context, query string, params map[string]any) error {
	return c.WriteTx(ctx, func(tx neo4j.ManagedTransaction) error {
		_, err := tx.Run(ctx, query, params)
		return err
	})
}

// WriteTx runs fn inside a managed write transaction. The transaction
// commits when fn returns nil and rolls back otherwise.
func (c *Client) WriteTx(ctx context.Context, fn func(tx neo4j.ManagedTransaction) error) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, fn(tx)
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrTypeGraph, "write transaction failed")
	}

	return nil
}
