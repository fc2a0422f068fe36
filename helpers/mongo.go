package helpers

import (
	"context"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spektr-org/pulse/table"
)

// ConnectMongo connects a client to uri.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	return client, nil
}

// LoadMongo reads documents matching filter (nil = all) into a Table.
// limit <= 0 reads everything.
func LoadMongo(ctx context.Context, coll *mongo.Collection, filter any, limit int64) (table.Table, error) {
	if filter == nil {
		filter = bson.D{}
	}
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return table.Table{}, fmt.Errorf("find on %s failed: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	var docs []bson.D
	for cursor.Next(ctx) {
		var doc bson.D
		if err := cursor.Decode(&doc); err != nil {
			return table.Table{}, fmt.Errorf("failed to decode document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := cursor.Err(); err != nil {
		return table.Table{}, fmt.Errorf("cursor failed: %w", err)
	}
	return tableFromDocuments(docs), nil
}

// tableFromDocuments flattens top-level document fields into columns,
// in first-seen order. Missing fields become nulls.
func tableFromDocuments(docs []bson.D) table.Table {
	var cols []string
	seen := make(map[string]bool)
	for _, d := range docs {
		for _, e := range d {
			if !seen[e.Key] {
				seen[e.Key] = true
				cols = append(cols, e.Key)
			}
		}
	}

	t := table.Table{Columns: cols, Rows: make([]table.Row, 0, len(docs))}
	for _, d := range docs {
		row := make(table.Row, len(cols))
		for _, c := range cols {
			row[c] = nil
		}
		for _, e := range d {
			row[e.Key] = bsonValue(e.Value)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func bsonValue(v any) any {
	switch x := v.(type) {
	case primitive.DateTime:
		return x.Time().UTC()
	case primitive.ObjectID:
		return x.Hex()
	case primitive.Decimal128:
		f, err := strconv.ParseFloat(x.String(), 64)
		if err != nil {
			return nil
		}
		return f
	case primitive.Null, primitive.Undefined:
		return nil
	case bson.D, bson.A, bson.M:
		return fmt.Sprint(x)
	}
	return v
}
