package services

import (
	"context"
	"log/slog"
	"math"
	"os"
	"strings"
	"testing"
)

const sampleCSV = `Row_ID,Order_Date,Category,Sub_Category,Sales,Quantity,Profit
1,2017-01-15,Furniture,Chairs,100,2,20
2,2017-01-20,Office Supplies,Paper,50,5,10
3,2017-03-02,Furniture,Tables,200,1,-40
4,2017-03-10,Technology,Phones,0,1,-5
5,2017-04-05,Office Supplies,Binders,80,4,16
6,2017-04-22,Furniture,Chairs,150,3,30`

// sampleBaseline is the mean of the five defined margins in sampleCSV.
const sampleBaseline = 0.12

func createTempCSV(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp("", "test*.csv")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		t.Fatal(err)
	}
	return f.Name()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func mustReadDataset(t *testing.T, content string) *Dataset {
	t.Helper()
	ds, err := ReadDataset(context.Background(), strings.NewReader(content), "test.csv", WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("ReadDataset() failed: %v", err)
	}
	return ds
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
