package catalog

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/orneryd/graphexec/pkg/binding"
	"github.com/orneryd/graphexec/pkg/config"
	"github.com/orneryd/graphexec/pkg/qerr"
	"github.com/orneryd/graphexec/pkg/storage"
)

const opProject = "gds.graph.project"

// Request is a validated projection request.
type Request struct {
	Name  string
	Nodes Spec
	Rels  Spec
	// Config holds recognized configuration keys; nil keys take the catalog
	// defaults.
	Config map[string]binding.Value
}

// projectionConfig is the effective configuration of one projection. Field
// order fixes the rendered configuration string.
type projectionConfig struct {
	Concurrency           bool `json:"concurrency"`
	ReadConcurrency       int  `json:"readConcurrency"`
	ValidateRelationships bool `json:"validateRelationships"`
}

func (pc projectionConfig) String() string {
	data, _ := json.Marshal(pc)
	return string(data)
}

func (c *Catalog) resolveConfig(raw map[string]binding.Value) (projectionConfig, error) {
	pc := projectionConfig{
		Concurrency:           c.defaults.Concurrency,
		ReadConcurrency:       c.defaults.ReadConcurrency,
		ValidateRelationships: c.defaults.ValidateRelationships,
	}
	for key, v := range raw {
		if v.IsNull() {
			continue
		}
		switch key {
		case "concurrency":
			b, ok := v.AsBool()
			if !ok {
				return pc, qerr.Invalid(opProject, "concurrency must be a boolean, got %s", v.Type())
			}
			pc.Concurrency = b
		case "readConcurrency":
			n, ok := v.AsInt()
			if !ok || v.Type() != binding.TypeInt {
				return pc, qerr.Invalid(opProject, "readConcurrency must be an integer, got %s", v.Type())
			}
			if n < 1 {
				return pc, qerr.Invalid(opProject, "readConcurrency must be positive, got %d", n)
			}
			pc.ReadConcurrency = int(n)
		case "validateRelationships":
			b, ok := v.AsBool()
			if !ok {
				return pc, qerr.Invalid(opProject, "validateRelationships must be a boolean, got %s", v.Type())
			}
			pc.ValidateRelationships = b
		default:
			c.log.WithField("key", key).Debug("ignoring unknown projection configuration key")
		}
	}
	return pc, nil
}

// ParseProjectArgs validates procedure arguments (name, nodeSpec, relSpec,
// optional configuration map) into a Request.
func ParseProjectArgs(args []binding.Value) (Request, error) {
	if len(args) < 3 || len(args) > 4 {
		return Request{}, qerr.Invalid(opProject, "expected 3 or 4 arguments (graphName, nodeProjection, relationshipProjection[, configuration]), got %d", len(args))
	}
	name, ok := args[0].AsString()
	if !ok || args[0].Type() != binding.TypeString {
		return Request{}, qerr.Invalid(opProject, "graphName must be a string, got %s", args[0].Type())
	}

	req := Request{Name: name}
	// Subquery mode applies only when both specifiers are query strings.
	nodeText, nodeIsQuery := queryText(args[1])
	relText, relIsQuery := queryText(args[2])
	if nodeIsQuery && relIsQuery {
		req.Nodes = Query(nodeText)
		req.Rels = Query(relText)
	} else if nodeIsQuery != relIsQuery {
		return Request{}, qerr.Invalid(opProject, "node and relationship projections must both be queries or both be descriptors")
	} else {
		var err error
		if req.Nodes, err = parseSpec(opProject, "node", args[1]); err != nil {
			return Request{}, err
		}
		if req.Rels, err = parseSpec(opProject, "relationship", args[2]); err != nil {
			return Request{}, err
		}
	}

	if len(args) == 4 && !args[3].IsNull() {
		if args[3].Type() != binding.TypeMap {
			return Request{}, qerr.Invalid(opProject, "configuration must be a map, got %s", args[3].Type())
		}
		req.Config = args[3].Entries()
	}
	return req, nil
}

func queryText(v binding.Value) (string, bool) {
	if v.Type() != binding.TypeString {
		return "", false
	}
	s, _ := v.AsString()
	return s, LooksLikeQuery(s)
}

// ProjectArgs validates procedure arguments and runs Project.
func (c *Catalog) ProjectArgs(ctx context.Context, args []binding.Value) (Summary, error) {
	req, err := ParseProjectArgs(args)
	if err != nil {
		return Summary{}, err
	}
	return c.Project(ctx, req)
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return qerr.Invalid(opProject, "graphName must not be empty")
	}
	if strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return qerr.Invalid(opProject, "graphName %q must not contain path separators or start with '.'", name)
	}
	return nil
}

// Project resolves req against the live graph and stores the result under
// req.Name, replacing any projection of the same name. Validation happens
// before any mutation, so a failed Project leaves the catalog unchanged.
func (c *Catalog) Project(ctx context.Context, req Request) (Summary, error) {
	start := time.Now()
	if err := validateName(req.Name); err != nil {
		return Summary{}, err
	}
	if err := req.Nodes.validate(opProject, "node"); err != nil {
		return Summary{}, err
	}
	if err := req.Rels.validate(opProject, "relationship"); err != nil {
		return Summary{}, err
	}
	if (req.Nodes.Kind == SpecQuery) != (req.Rels.Kind == SpecQuery) {
		return Summary{}, qerr.Invalid(opProject, "node and relationship projections must both be queries or both be descriptors")
	}
	pc, err := c.resolveConfig(req.Config)
	if err != nil {
		return Summary{}, err
	}

	log := c.log.WithField("graph", req.Name)
	if delay := c.defaults.SequentialDelay; !pc.Concurrency && delay > 0 {
		log.WithField("delay", delay).Debug("concurrency disabled, resolving sequentially")
		time.Sleep(delay)
	}

	var g *Graph
	if req.Nodes.Kind == SpecQuery {
		g, err = c.resolveQueries(ctx, req.Nodes.Query, req.Rels.Query)
	} else {
		g, err = c.resolveDescriptors(req.Nodes, req.Rels, pc.ValidateRelationships)
	}
	if err != nil {
		return Summary{}, err
	}

	// The file keeps milliseconds only; match it so a reload lists the same times.
	now := c.now().Round(0).Truncate(time.Millisecond)
	g.Name = req.Name
	g.NodeProjection = req.Nodes.Display()
	g.RelationshipProjection = req.Rels.Display()
	g.Configuration = pc.String()
	g.CreationTime = now
	g.ModificationTime = now
	if prev, ok := c.graphs[req.Name]; ok {
		g.CreationTime = prev.CreationTime
		log.Debug("replacing existing projection")
	}

	if err := c.save(g); err != nil {
		return Summary{}, err
	}
	c.graphs[req.Name] = g
	c.metrics.projected(len(c.graphs))

	summary := c.summarize(g, c.database)
	summary.ProjectMillis = time.Since(start).Milliseconds()
	log.WithFields(logrus.Fields{
		"nodes":         summary.NodeCount,
		"relationships": summary.RelationshipCount,
	}).Info("graph projected")
	return summary, nil
}

// resolveDescriptors resolves label/type descriptors through the graph index.
func (c *Catalog) resolveDescriptors(nodes, rels Spec, validate bool) (*Graph, error) {
	g := &Graph{}
	seen := make(map[uint64]struct{})
	addNodes := func(ids []uint64) {
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			g.Nodes = append(g.Nodes, id)
		}
	}

	if nodes.Kind == SpecWildcard {
		ids, err := c.index.AllNodeIDs()
		if err != nil {
			return nil, err
		}
		addNodes(ids)
	} else {
		for _, label := range nodes.Names {
			ids, err := c.index.NodesByLabel(label)
			if err != nil {
				return nil, err
			}
			addNodes(ids)
			if keys := nodes.Properties[label]; len(keys) > 0 {
				if err := c.captureNodeProperties(g, ids, keys); err != nil {
					return nil, err
				}
			}
		}
	}

	seenEdges := make(map[uint64]struct{})
	if rels.Kind == SpecWildcard {
		edges, err := c.index.AllEdges()
		if err != nil {
			return nil, err
		}
		addEdges(g, edges, seen, seenEdges, validate)
		return g, nil
	}
	for _, t := range rels.Names {
		edges, err := c.index.EdgesByType(t)
		if err != nil {
			return nil, err
		}
		addEdges(g, edges, seen, seenEdges, validate)
	}
	return g, nil
}

// addEdges appends edges not seen before. With validate set, edges with an
// endpoint outside the projected node set are dropped.
func addEdges(g *Graph, edges []*storage.Edge, nodes, seen map[uint64]struct{}, validate bool) {
	for _, e := range edges {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		if validate {
			_, okS := nodes[e.Source]
			_, okT := nodes[e.Target]
			if !okS || !okT {
				continue
			}
		}
		g.Edges = append(g.Edges, Edge{Source: e.Source, Target: e.Target, Type: e.Type})
	}
}

func (c *Catalog) captureNodeProperties(g *Graph, ids []uint64, keys []string) error {
	if g.NodeProperties == nil {
		g.NodeProperties = make(map[uint64]map[string]binding.Value)
	}
	for _, id := range ids {
		raw, err := c.index.NodeProperties(id)
		if err != nil {
			return err
		}
		props := g.NodeProperties[id]
		if props == nil {
			props = make(map[string]binding.Value)
			g.NodeProperties[id] = props
		}
		for _, k := range keys {
			if v := binding.FromGo(raw[k]); v.IsScalar() {
				props[k] = v
			}
		}
	}
	return nil
}

// Defaults returns the configuration applied to keys a request omits.
func (c *Catalog) Defaults() config.CatalogConfig { return c.defaults }
