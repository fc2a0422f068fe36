package helpers

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTableFromDocuments(t *testing.T) {
	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	oid := primitive.NewObjectID()
	amount, err := primitive.ParseDecimal128("12.50")
	require.NoError(t, err)

	tbl := tableFromDocuments([]bson.D{
		{{Key: "_id", Value: oid}, {Key: "date", Value: primitive.NewDateTimeFromTime(when)}, {Key: "amount", Value: amount}},
		{{Key: "_id", Value: "x"}, {Key: "customer", Value: "Acme"}, {Key: "amount", Value: primitive.Null{}}},
	})

	assert.Equal(t, []string{"_id", "date", "amount", "customer"}, tbl.Columns)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, oid.Hex(), tbl.Value(0, "_id"))
	got, ok := tbl.Value(0, "date").(time.Time)
	require.True(t, ok)
	assert.True(t, when.Equal(got))
	assert.Equal(t, 12.5, tbl.Value(0, "amount"))
	assert.Nil(t, tbl.Value(0, "customer"), "missing fields are null")
	assert.Nil(t, tbl.Value(1, "amount"))
}

func TestTableFromNoDocuments(t *testing.T) {
	tbl := tableFromDocuments(nil)
	assert.True(t, tbl.IsEmpty())
}

func TestPgValue(t *testing.T) {
	var n pgtype.Numeric
	require.NoError(t, n.Scan("19.99"))
	assert.InDelta(t, 19.99, pgValue(n), 1e-9)
	assert.Nil(t, pgValue(pgtype.Numeric{}))

	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, day, pgValue(pgtype.Date{Time: day, Valid: true}))
	assert.Nil(t, pgValue(pgtype.Timestamptz{}))

	id := uuid.New()
	assert.Equal(t, id.String(), pgValue([16]byte(id)))
	assert.Equal(t, "abc", pgValue([]byte("abc")))
	assert.Equal(t, int64(7), pgValue(int64(7)))
}

func TestSQLValue(t *testing.T) {
	assert.Equal(t, "12.00", sqlValue([]byte("12.00")))
	assert.Nil(t, sqlValue(nil))
	assert.Equal(t, 3.5, sqlValue(3.5))
}
