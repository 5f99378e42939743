package export

import (
	"context"
	"fmt"
	"log/slog"

	"contractmap/internal/graph"
	"contractmap/internal/logging"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jLoader writes function hierarchies into Neo4j using batched UNWIND queries.
type Neo4jLoader struct {
	driver neo4j.DriverWithContext
	logger *slog.Logger
}

// NewNeo4jLoader connects to Neo4j and verifies the connection.
func NewNeo4jLoader(ctx context.Context, uri, user, password string, logger *slog.Logger) (*Neo4jLoader, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("neo4j unreachable at %s: %w", uri, err)
	}
	return &Neo4jLoader{driver: driver, logger: logging.OrDiscard(logger)}, nil
}

func (l *Neo4jLoader) Close(ctx context.Context) error {
	return l.driver.Close(ctx)
}

func (l *Neo4jLoader) runCypher(ctx context.Context, cypher string, params map[string]any) error {
	_, err := neo4j.ExecuteQuery(ctx, l.driver, cypher, params, neo4j.EagerResultTransformer)
	return err
}

// CreateIndexes ensures the lookup indexes exist.
func (l *Neo4jLoader) CreateIndexes(ctx context.Context) error {
	indexes := []string{
		"CREATE INDEX contract_fn_id IF NOT EXISTS FOR (n:ContractFunction) ON (n.id)",
		"CREATE INDEX contract_fn_source IF NOT EXISTS FOR (n:ContractFunction) ON (n.source)",
	}
	for _, q := range indexes {
		if err := l.runCypher(ctx, q, nil); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// Clean removes every node previously loaded for source.
func (l *Neo4jLoader) Clean(ctx context.Context, source string) error {
	l.logger.Debug("cleaning neo4j graph", "source", source)
	return l.runCypher(ctx,
		`MATCH (n:ContractFunction {source: $source}) DETACH DELETE n`,
		map[string]any{"source": source},
	)
}

// LoadTree upserts every node of root and the CALLS edges between them.
func (l *Neo4jLoader) LoadTree(ctx context.Context, source string, root *graph.Node) error {
	flat := graph.Flatten(source, root)
	if len(flat) == 0 {
		return nil
	}

	nodes := nodeBatch(source, flat)
	l.logger.Info("loading functions", "source", source, "count", len(nodes))
	err := l.runCypher(ctx,
		`UNWIND $batch AS row
		 MERGE (n:ContractFunction {id: row.id})
		 SET n.source = row.source, n.name = row.name, n.path = row.path,
		     n.depth = row.depth, n.scope = row.scope, n.action = row.action,
		     n.is_root = row.is_root`,
		map[string]any{"batch": nodes},
	)
	if err != nil {
		return fmt.Errorf("failed to load functions: %w", err)
	}

	edges := edgeBatch(flat)
	if len(edges) == 0 {
		return nil
	}
	l.logger.Info("loading calls", "source", source, "count", len(edges))
	err = l.runCypher(ctx,
		`UNWIND $batch AS row
		 MATCH (caller:ContractFunction {id: row.caller}), (callee:ContractFunction {id: row.callee})
		 MERGE (caller)-[r:CALLS]->(callee)
		 SET r.kind = row.kind, r.position = row.position`,
		map[string]any{"batch": edges},
	)
	if err != nil {
		return fmt.Errorf("failed to load calls: %w", err)
	}
	return nil
}

func nodeBatch(source string, flat []graph.FlatNode) []map[string]any {
	batch := make([]map[string]any, 0, len(flat))
	for _, n := range flat {
		batch = append(batch, map[string]any{
			"id":      n.ID,
			"source":  source,
			"name":    n.Name,
			"path":    n.Path,
			"depth":   n.Depth,
			"scope":   string(n.Scope),
			"action":  string(n.Action),
			"is_root": n.ParentID == "",
		})
	}
	return batch
}

func edgeBatch(flat []graph.FlatNode) []map[string]any {
	batch := make([]map[string]any, 0, len(flat))
	for _, n := range flat {
		if n.ParentID == "" {
			continue
		}
		batch = append(batch, map[string]any{
			"caller":   n.ParentID,
			"callee":   n.ID,
			"kind":     string(n.Kind),
			"position": n.Position,
		})
	}
	return batch
}
