package csvio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/stockcount/pkg/types"
)

func intPtr(v int) *int { return &v }

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModePhysical, false},
		{"physical", ModePhysical, false},
		{" FULL ", ModeFull, false},
		{"both", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrInvalidData)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseProducts(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []types.ProductInput
	}{
		{
			name:    "header skipped and blank lines dropped",
			payload: "codigo,descripcion\n1001,Coca Cola 2.5L\n\n1002,Papas Fritas 150g\r\n",
			want: []types.ProductInput{
				{Code: "1001", Description: "Coca Cola 2.5L"},
				{Code: "1002", Description: "Papas Fritas 150g"},
			},
		},
		{
			name:    "no header",
			payload: "A1,Arroz 1kg",
			want:    []types.ProductInput{{Code: "A1", Description: "Arroz 1kg"}},
		},
		{
			name:    "semicolon separator keeps commas in description",
			payload: "código;descripción\nB2;Harina, 1kg",
			want:    []types.ProductInput{{Code: "B2", Description: "Harina, 1kg"}},
		},
		{
			name:    "unquoted separators join into description",
			payload: "C3,Leche, entera, 1L",
			want:    []types.ProductInput{{Code: "C3", Description: "Leche, entera, 1L"}},
		},
		{
			name:    "quoted description",
			payload: `D4,"Galletas ""Maria"", 200g"`,
			want:    []types.ProductInput{{Code: "D4", Description: `Galletas "Maria", 200g`}},
		},
		{
			name:    "missing description kept for the store to drop",
			payload: "E5",
			want:    []types.ProductInput{{Code: "E5"}},
		},
		{
			name:    "keyword inside first data line is not a header",
			payload: "SKU-9,ECOSYSTEM KIT\nCODE-1,Barcode scanner\nSKU-10,BOLT\n",
			want: []types.ProductInput{
				{Code: "SKU-9", Description: "ECOSYSTEM KIT"},
				{Code: "CODE-1", Description: "Barcode scanner"},
				{Code: "SKU-10", Description: "BOLT"},
			},
		},
		{
			name:    "empty payload",
			payload: "\n \n",
			want:    nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseProducts(tt.payload))
		})
	}
}

func TestParseCounts(t *testing.T) {
	tests := []struct {
		name        string
		payload     string
		mode        Mode
		want        []types.CountUpdate
		wantSkipped int
	}{
		{
			name:    "physical code,physical",
			payload: "code,physical\na,5\nb,0",
			mode:    ModePhysical,
			want: []types.CountUpdate{
				{Code: "A", PhysicalCount: 5},
				{Code: "B", PhysicalCount: 0},
			},
		},
		{
			name:    "physical with description",
			payload: "A;Arroz;7",
			mode:    ModePhysical,
			want:    []types.CountUpdate{{Code: "A", PhysicalCount: 7}},
		},
		{
			name:    "physical reads template layout and ignores system",
			payload: "codigo,descripcion,fisico,sistema\nA,Arroz,7,9",
			mode:    ModePhysical,
			want:    []types.CountUpdate{{Code: "A", PhysicalCount: 7}},
		},
		{
			name:    "full code,physical,system",
			payload: "A,3,4",
			mode:    ModeFull,
			want:    []types.CountUpdate{{Code: "A", PhysicalCount: 3, SystemCount: intPtr(4)}},
		},
		{
			name:    "full template layout",
			payload: "codigo,descripcion,fisico,sistema\nA,\"Arroz, 1kg\",3,4",
			mode:    ModeFull,
			want:    []types.CountUpdate{{Code: "A", PhysicalCount: 3, SystemCount: intPtr(4)}},
		},
		{
			name:    "full log layout ignores difference",
			payload: "código,descripción,físico,sistema,diferencia\nA,Arroz,3,4,-1",
			mode:    ModeFull,
			want:    []types.CountUpdate{{Code: "A", PhysicalCount: 3, SystemCount: intPtr(4)}},
		},
		{
			name:        "full rejects physical-only lines",
			payload:     "A,3",
			mode:        ModeFull,
			wantSkipped: 1,
		},
		{
			name:        "invalid lines skipped",
			payload:     "A,5\n,3\nB,-1\nC,x\nD,1.5\nmalformed",
			mode:        ModePhysical,
			want:        []types.CountUpdate{{Code: "A", PhysicalCount: 5}},
			wantSkipped: 5,
		},
		{
			name:        "duplicate code last wins",
			payload:     "A,1\nB,2\na,3",
			mode:        ModePhysical,
			want:        []types.CountUpdate{{Code: "A", PhysicalCount: 3}, {Code: "B", PhysicalCount: 2}},
			wantSkipped: 1,
		},
		{
			name:    "keyword inside first data line is not a header",
			payload: "SKU-1,BARCODE SCANNER,5\nSKU-2,WIDGET,7\n",
			mode:    ModePhysical,
			want: []types.CountUpdate{
				{Code: "SKU-1", PhysicalCount: 5},
				{Code: "SKU-2", PhysicalCount: 7},
			},
		},
		{
			name:    "quoted semicolon does not switch separator",
			payload: "A,\"WIDGET; BLUE\",5,6",
			mode:    ModeFull,
			want:    []types.CountUpdate{{Code: "A", PhysicalCount: 5, SystemCount: intPtr(6)}},
		},
		{
			name:        "full rejects negative system",
			payload:     "A,1,-2",
			mode:        ModeFull,
			wantSkipped: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, skipped := ParseCounts(tt.payload, tt.mode)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantSkipped, skipped)
		})
	}
}
