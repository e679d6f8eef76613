package neo4jdb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/brunobiangulo/kgnorm/graph"
)

// maxDescription bounds descriptions written as Neo4j properties.
const maxDescription = 900

var schemaStmts = []string{
	`CREATE CONSTRAINT kg_document_id_unique IF NOT EXISTS FOR (d:Document) REQUIRE d.id IS UNIQUE`,
	`CREATE CONSTRAINT kg_entity_name_unique IF NOT EXISTS FOR (e:Entity) REQUIRE e.name IS UNIQUE`,
}

// nodeParams builds the UNWIND rows for the canonical nodes of g.
func nodeParams(g *graph.Graph, syncedAt string) []map[string]any {
	out := make([]map[string]any, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			continue
		}
		props := ""
		if len(n.Properties) > 0 {
			if b, err := json.Marshal(n.Properties); err == nil {
				props = string(b)
			}
		}
		out = append(out, map[string]any{
			"name":            n.ID,
			"type":            n.Type,
			"description":     truncate(n.Description, maxDescription),
			"degree":          int64(n.Degree),
			"properties_json": props,
			"synced_at":       syncedAt,
		})
	}
	return out
}

// edgeParams builds the UNWIND rows for the canonical edges of g.
func edgeParams(g *graph.Graph) []map[string]any {
	out := make([]map[string]any, 0, len(g.Edges))
	for _, e := range g.Edges {
		if e.Source == "" || e.Target == "" {
			continue
		}
		out = append(out, map[string]any{
			"source": e.Source,
			"target": e.Target,
			"label":  e.Label,
			"weight": e.Weight,
		})
	}
	return out
}

// aliasParams builds the UNWIND rows for the alias table of g.
func aliasParams(g *graph.Graph) []map[string]any {
	out := make([]map[string]any, 0, len(g.Aliases))
	for alias, canonical := range g.Aliases {
		out = append(out, map[string]any{"alias": alias, "canonical": canonical})
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// UpsertGraph mirrors the normalized graph of one document. Entities are
// shared across documents and carry the ids of every document that
// mentions them; relations are scoped to the document and replaced on
// each call.
func (c *Client) UpsertGraph(ctx context.Context, docID string, g *graph.Graph) error {
	if c == nil || c.Driver == nil || g == nil {
		return nil
	}
	if docID == "" {
		return fmt.Errorf("neo4jdb: empty document id")
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	nodes := nodeParams(g, now)
	edges := edgeParams(g)
	aliases := aliasParams(g)

	session := c.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: c.Database,
	})
	defer session.Close(ctx)

	// Best-effort schema init.
	for _, q := range schemaStmts {
		if res, err := session.Run(ctx, q, nil); err != nil {
			c.log.Warn("neo4j schema init failed (continuing)", "error", err)
		} else {
			_, _ = res.Consume(ctx)
		}
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		run := func(query string, params map[string]any) error {
			res, err := tx.Run(ctx, query, params)
			if err != nil {
				return err
			}
			_, err = res.Consume(ctx)
			return err
		}

		if err := run(`
MERGE (d:Document {id: $doc_id})
SET d.synced_at = $synced_at, d.nodes = $node_count, d.edges = $edge_count
WITH d
MATCH ()-[r:RELATED {doc_id: $doc_id}]->()
DELETE r
`, map[string]any{
			"doc_id":     docID,
			"synced_at":  now,
			"node_count": int64(len(nodes)),
			"edge_count": int64(len(edges)),
		}); err != nil {
			return nil, fmt.Errorf("anchoring document: %w", err)
		}

		if len(nodes) > 0 {
			if err := run(`
UNWIND $nodes AS n
MERGE (e:Entity {name: n.name})
SET e.type = n.type,
    e.description = CASE WHEN n.description <> '' THEN n.description ELSE e.description END,
    e.degree = n.degree,
    e.properties_json = n.properties_json,
    e.synced_at = n.synced_at,
    e.doc_ids = CASE
        WHEN e.doc_ids IS NULL THEN [$doc_id]
        WHEN $doc_id IN e.doc_ids THEN e.doc_ids
        ELSE e.doc_ids + $doc_id END
WITH e
MATCH (d:Document {id: $doc_id})
MERGE (d)-[:MENTIONS]->(e)
`, map[string]any{"nodes": nodes, "doc_id": docID}); err != nil {
				return nil, fmt.Errorf("upserting entities: %w", err)
			}
		}

		if len(edges) > 0 {
			if err := run(`
UNWIND $edges AS r
MATCH (a:Entity {name: r.source})
MATCH (b:Entity {name: r.target})
CREATE (a)-[rel:RELATED {label: r.label, weight: r.weight, doc_id: $doc_id}]->(b)
`, map[string]any{"edges": edges, "doc_id": docID}); err != nil {
				return nil, fmt.Errorf("creating relations: %w", err)
			}
		}

		if len(aliases) > 0 {
			if err := run(`
UNWIND $aliases AS a
MATCH (e:Entity {name: a.canonical})
SET e.aliases = CASE
    WHEN e.aliases IS NULL THEN [a.alias]
    WHEN a.alias IN e.aliases THEN e.aliases
    ELSE e.aliases + a.alias END
`, map[string]any{"aliases": aliases}); err != nil {
				return nil, fmt.Errorf("recording aliases: %w", err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("neo4jdb: upsert graph %s: %w", docID, err)
	}

	c.log.Debug("mirrored graph", "doc_id", docID, "nodes", len(nodes), "edges", len(edges))
	return nil
}

// DeleteDocument removes the relations of a document, detaches it from its
// entities and deletes entities no other document mentions.
func (c *Client) DeleteDocument(ctx context.Context, docID string) error {
	if c == nil || c.Driver == nil {
		return nil
	}

	session := c.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: c.Database,
	})
	defer session.Close(ctx)

	stmts := []string{
		`MATCH ()-[r:RELATED {doc_id: $doc_id}]->() DELETE r`,
		`MATCH (e:Entity) WHERE $doc_id IN e.doc_ids
SET e.doc_ids = [x IN e.doc_ids WHERE x <> $doc_id]`,
		`MATCH (e:Entity) WHERE size(coalesce(e.doc_ids, [])) = 0 DETACH DELETE e`,
		`MATCH (d:Document {id: $doc_id}) DETACH DELETE d`,
	}
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, q := range stmts {
			res, err := tx.Run(ctx, q, map[string]any{"doc_id": docID})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("neo4jdb: delete document %s: %w", docID, err)
	}
	return nil
}
