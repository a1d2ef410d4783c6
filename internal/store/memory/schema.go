package memory

import (
	"github.com/hashicorp/go-memdb"
)

const (
	tablePoint = "point"
	tableGroup = "group"

	indexID       = "id"
	indexGroup    = "group"
	indexCategory = "category"
)

type pointRow struct {
	id       int64
	x        float64
	y        float64
	category int
	groupID  int64
}

type groupRow struct {
	id int64
}

var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tablePoint: {
			Name: tablePoint,
			Indexes: map[string]*memdb.IndexSchema{
				indexID: {
					Name:    indexID,
					Unique:  true,
					Indexer: &memdb.IntFieldIndex{Field: "id"},
				},
				indexGroup: {
					Name:    indexGroup,
					Unique:  false,
					Indexer: &memdb.IntFieldIndex{Field: "groupID"},
				},
				indexCategory: {
					Name:    indexCategory,
					Unique:  false,
					Indexer: &memdb.IntFieldIndex{Field: "category"},
				},
			},
		},
		tableGroup: {
			Name: tableGroup,
			Indexes: map[string]*memdb.IndexSchema{
				indexID: {
					Name:    indexID,
					Unique:  true,
					Indexer: &memdb.IntFieldIndex{Field: "id"},
				},
			},
		},
	},
}
