package handlers

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"sales-explorer/internal/services"
)

const testCSV = `Order_Date,Category,Sub_Category,Sales,Profit
2017-01-15,Furniture,Chairs,100,20
2017-01-20,Office Supplies,Paper,50,10
2017-03-02,Furniture,Tables,200,-40
2017-03-10,Technology,Phones,0,-5
2017-04-22,Furniture,Chairs,150,30`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func createTestExplorer(t *testing.T) *services.Explorer {
	t.Helper()
	ds, err := services.ReadDataset(context.Background(), strings.NewReader(testCSV), "test.csv",
		services.WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("ReadDataset() failed: %v", err)
	}
	return services.NewExplorer(ds, testLogger())
}
