package region

import "testing"

func TestClassifyProvinceCity(t *testing.T) {
	got := Classify("Brgy. Poblacion, Davao City")
	want := Info{Island: Mindanao, Region: "Region XI", Province: "Davao City"}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestClassifyAliases(t *testing.T) {
	tests := []struct {
		raw    string
		region string
		island string
	}{
		{"REGION 4A", "Region IV-A", Luzon},
		{"calabarzon", "Region IV-A", Luzon},
		{"NCR", "NCR", Luzon},
		{"Region IV-B (MIMAROPA)", "Region IV-B", Luzon},
		{"Central Visayas", "Region VII", Visayas},
		{"CARAGA", "Region XIII", Mindanao},
	}
	for _, tt := range tests {
		got := Classify(tt.raw)
		if got.Region != tt.region || got.Island != tt.island {
			t.Errorf("Classify(%q) = %+v, want region %s island %s", tt.raw, got, tt.region, tt.island)
		}
		if got.Province != Unknown {
			t.Errorf("Classify(%q): alias match should leave province Unknown, got %s", tt.raw, got.Province)
		}
	}
}

func TestClassifyLongestNameWins(t *testing.T) {
	tests := []struct {
		raw      string
		province string
		region   string
	}{
		{"123 Mabini St, Cebu City", "Cebu City", "Region VII"},
		{"Koronadal, South Cotabato", "South Cotabato", "Region XII"},
		{"Cagayan de Oro", "Cagayan de Oro", "Region X"},
		{"Diliman, Quezon City", "Quezon City", "NCR"},
		{"Lapu-Lapu", "Lapu-Lapu", "Region VII"},
		{"Las Piñas", "Las Pinas", "NCR"},
	}
	for _, tt := range tests {
		got := Classify(tt.raw)
		if got.Province != tt.province || got.Region != tt.region {
			t.Errorf("Classify(%q) = %+v, want %s / %s", tt.raw, got, tt.province, tt.region)
		}
	}
}

func TestClassifyIslandFallback(t *testing.T) {
	tests := []struct {
		raw    string
		island string
	}{
		{"Somewhere in Mindanao", Mindanao},
		{"Panay island", Visayas},
		{"Northern Luzon", Luzon},
		{"Davao", Mindanao},
	}
	for _, tt := range tests {
		got := Classify(tt.raw)
		want := Info{Island: tt.island, Region: Unknown, Province: Unknown}
		if got != want {
			t.Errorf("Classify(%q) = %+v, want %+v", tt.raw, got, want)
		}
	}
}

func TestClassifyUnknown(t *testing.T) {
	for _, raw := range []string{"", "   ", "Atlantis", "Springfield, USA"} {
		if got := Classify(raw); got != UnknownInfo {
			t.Errorf("Classify(%q) = %+v, want unknown", raw, got)
		}
	}
}

func TestClassifyWordBoundaries(t *testing.T) {
	// "CAR" must not match inside "CARMEN".
	got := Classify("Carmen Street")
	if got.Region == "CAR" {
		t.Errorf("unexpected CAR match: %+v", got)
	}
}

func TestClassifyIdempotent(t *testing.T) {
	c := Default()
	first := c.Classify("Pasig")
	second := c.Classify("Pasig")
	if first != second {
		t.Errorf("expected identical results, got %+v and %+v", first, second)
	}
}

func TestParseTaxonomyRejectsEmpty(t *testing.T) {
	if _, err := ParseTaxonomy([]byte("aliases: {}")); err == nil {
		t.Error("expected error for taxonomy without islands")
	}
}

func TestNewClassifierCustomTaxonomy(t *testing.T) {
	tax, err := ParseTaxonomy([]byte(`
islands:
  visayas:
    Region VII: [Bohol]
aliases:
  REGION 7: Region VII
  NOWHERE: Region Z
island_keywords:
  visayas: [VISAYAS]
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := NewClassifier(tax)
	if got := c.Classify("Tagbilaran, Bohol"); got.Province != "Bohol" {
		t.Errorf("expected Bohol, got %+v", got)
	}
	if got := c.Classify("NOWHERE"); got != UnknownInfo {
		t.Errorf("alias to undefined region should be ignored, got %+v", got)
	}
}
