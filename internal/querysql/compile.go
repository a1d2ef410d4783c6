package querysql

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/cropq/internal/geom"
	"github.com/roach88/cropq/internal/store"
)

// Table and column names.
const (
	TableRegion = "inspection_region"
	TableGroup  = "inspection_group"

	ColID       = "id"
	ColX        = "coord_x"
	ColY        = "coord_y"
	ColCategory = "category"
	ColGroupID  = "group_id"
)

// Compiler builds statements for one SQL dialect.
type Compiler struct {
	builder sq.StatementBuilderType
}

// NewCompiler returns a compiler using the given placeholder format.
func NewCompiler(format sq.PlaceholderFormat) *Compiler {
	return &Compiler{builder: sq.StatementBuilder.PlaceholderFormat(format)}
}

// SQLite returns a compiler emitting '?' placeholders.
func SQLite() *Compiler {
	return NewCompiler(sq.Question)
}

// Postgres returns a compiler emitting '$n' placeholders.
func Postgres() *Compiler {
	return NewCompiler(sq.Dollar)
}

// CompilePoints compiles a filter to a select over inspection_region.
//
// Result columns: id, coord_x, coord_y, category, group_id.
// Rows are ordered by coord_y, coord_x, id.
func (c *Compiler) CompilePoints(f store.Filter) (string, []any, error) {
	q := c.builder.
		Select(ColID, ColX, ColY, ColCategory, ColGroupID).
		From(TableRegion).
		Where(regionPredicate("", f.Region))

	if f.Category != nil {
		q = q.Where(sq.Eq{ColCategory: *f.Category})
	}
	if f.OneOfGroups != nil {
		q = q.Where(groupPredicate(f.OneOfGroups))
	}
	if f.ProperIn != nil {
		proper, err := properPredicate(*f.ProperIn)
		if err != nil {
			return "", nil, err
		}
		q = q.Where(proper)
	}

	q = q.OrderBy(ColY+" ASC", ColX+" ASC", ColID+" ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("compile points query: %w", err)
	}
	return sql, args, nil
}

// CompileGroupCounts compiles the per-group count aggregate for region.
//
// Result columns: group id, total members, members inside region.
// Every registered group appears, including groups with no points.
func (c *Compiler) CompileGroupCounts(region geom.Region) (string, []any, error) {
	inside, insideArgs, err := insideCount(region)
	if err != nil {
		return "", nil, err
	}

	q := c.builder.
		Select("g."+ColID).
		Column("COUNT(r."+ColID+")").
		Column(inside, insideArgs...).
		From(TableGroup + " g").
		LeftJoin(TableRegion + " r ON r." + ColGroupID + " = g." + ColID).
		GroupBy("g." + ColID).
		OrderBy("g." + ColID + " ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("compile group counts query: %w", err)
	}
	return sql, args, nil
}

// insideCount is the aggregate counting joined members inside region.
func insideCount(region geom.Region) (string, []any, error) {
	inside, args, err := regionPredicate("r.", region).ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("compile region predicate: %w", err)
	}
	return "COALESCE(SUM(CASE WHEN " + inside + " THEN 1 ELSE 0 END), 0)", args, nil
}

// properPredicate compiles group_id IN (<groups proper within region>).
// The subquery binds the four region bounds however many groups qualify.
// It is built with '?' placeholders; the outer builder renumbers them.
func properPredicate(region geom.Region) (sq.Sqlizer, error) {
	inside, insideArgs, err := insideCount(region)
	if err != nil {
		return nil, err
	}

	sub, args, err := sq.Select("g."+ColID).
		From(TableGroup+" g").
		LeftJoin(TableRegion+" r ON r."+ColGroupID+" = g."+ColID).
		GroupBy("g."+ColID).
		Having("COUNT(r."+ColID+") = "+inside, insideArgs...).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("compile proper groups subquery: %w", err)
	}
	return sq.Expr(ColGroupID+" IN ("+sub+")", args...), nil
}

// regionPredicate is the inclusive bounds test. An inverted region
// compiles to bounds no row can satisfy.
func regionPredicate(prefix string, r geom.Region) sq.And {
	return sq.And{
		sq.GtOrEq{prefix + ColX: r.MinX},
		sq.LtOrEq{prefix + ColX: r.MaxX},
		sq.GtOrEq{prefix + ColY: r.MinY},
		sq.LtOrEq{prefix + ColY: r.MaxY},
	}
}

// groupPredicate compiles group_id IN (...). squirrel renders an empty
// slice as (1=0).
func groupPredicate(ids []int64) sq.Eq {
	return sq.Eq{ColGroupID: ids}
}
