package importexport

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"

	dbpkg "github.com/smith3v/kotoba-srs/pkg/db"
	"github.com/smith3v/kotoba-srs/pkg/internal/testutil"
)

func TestDetectCSVDelimiter(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected rune
	}{
		{"comma", "term,meaning\n犬,dog\n", ','},
		{"tab", "term\tmeaning\n犬\tdog\n", '\t'},
		{"semicolon", "term;meaning\n犬;dog\n", ';'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectCSVDelimiter([]byte(tt.input))
			if got != tt.expected {
				t.Fatalf("expected %q delimiter, got %q", tt.expected, got)
			}
		})
	}
}

func TestParseCatalogCSVWithHeader(t *testing.T) {
	data := strings.Join([]string{
		"term;reading;meaning;synonyms;frequency;jlpt",
		"食べる;たべる;to eat;eat|consume;12;n5",
		"猫;ねこ;;;3;n5",
		";;missing term;;;",
		"",
		"犬;いぬ;dog;;abc;n5",
		"水;みず;water;;7;n5",
	}, "\n")

	rows, skipped, err := ParseCatalogCSV(append(append([]byte{}, utf8BOM...), data...))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %+v", len(rows), rows)
	}
	if skipped != 3 {
		t.Fatalf("expected 3 skipped rows, got %d", skipped)
	}
	first := rows[0]
	if first.Term != "食べる" || first.Reading != "たべる" || first.Meaning != "to eat" {
		t.Fatalf("unexpected first row: %+v", first)
	}
	if !reflect.DeepEqual(first.Synonyms, []string{"eat", "consume"}) {
		t.Fatalf("unexpected synonyms: %v", first.Synonyms)
	}
	if first.FrequencyRank != 12 || first.JlptLevel != "N5" {
		t.Fatalf("unexpected rank or level: %+v", first)
	}
	if first.ID == "" {
		t.Fatalf("expected generated id")
	}
}

func TestParseCatalogCSVPositional(t *testing.T) {
	data := "v1,山,やま,mountain,,さん,山に登る。,Climb a mountain.,N5,40\n"
	rows, skipped, err := ParseCatalogCSV([]byte(data))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if skipped != 0 || len(rows) != 1 {
		t.Fatalf("expected one row, got %d (skipped %d)", len(rows), skipped)
	}
	row := rows[0]
	want := CatalogRow{
		ID:              "v1",
		Term:            "山",
		Reading:         "やま",
		Meaning:         "mountain",
		ReadingSynonyms: []string{"さん"},
		ExampleJapanese: "山に登る。",
		ExampleEnglish:  "Climb a mountain.",
		JlptLevel:       "N5",
		FrequencyRank:   40,
	}
	if !reflect.DeepEqual(row, want) {
		t.Fatalf("unexpected row:\n got %+v\nwant %+v", row, want)
	}
}

func TestGeneratedIDsAreStable(t *testing.T) {
	data := []byte("term,reading,meaning\n犬,いぬ,dog\n")
	first, _, err := ParseCatalogCSV(data)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	second, _, err := ParseCatalogCSV(data)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if first[0].ID != second[0].ID {
		t.Fatalf("expected stable ids, got %s and %s", first[0].ID, second[0].ID)
	}
}

func TestUpsertCatalog(t *testing.T) {
	testutil.SetupTestDB(t)
	testutil.SeedCatalog(t, dbpkg.Vocabulary{ID: "v1", Term: "犬", Meaning: "doggo"})

	inserted, updated, err := UpsertCatalog([]CatalogRow{
		{ID: "v1", Term: "犬", Reading: "いぬ", Meaning: "dog", FrequencyRank: 2},
		{ID: "v2", Term: "猫", Reading: "ねこ", Meaning: "cat", Synonyms: []string{"kitty"}, FrequencyRank: 1},
	})
	if err != nil {
		t.Fatalf("unexpected upsert error: %v", err)
	}
	if inserted != 1 || updated != 1 {
		t.Fatalf("expected 1 insert and 1 update, got %d inserts and %d updates", inserted, updated)
	}

	catalog, err := dbpkg.LoadCatalog("")
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	if len(catalog) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(catalog))
	}
	if catalog[0].ID != "v2" || catalog[1].Meaning != "dog" || catalog[1].Reading != "いぬ" {
		t.Fatalf("unexpected catalog: %+v", catalog)
	}
	if got := dbpkg.DecodeList(catalog[0].Synonyms); !reflect.DeepEqual(got, []string{"kitty"}) {
		t.Fatalf("unexpected synonyms: %v", got)
	}
}

func TestBuildProgressExportCSV(t *testing.T) {
	reviewed := time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)
	rows := []ProgressRow{
		{
			Vocab: dbpkg.Vocabulary{ID: "v1", Term: "犬", Reading: "いぬ", Meaning: "dog, hound"},
			Progress: dbpkg.VocabProgress{
				Status:       "review",
				Interval:     6,
				EaseFactor:   2.6,
				Repetitions:  2,
				NextReview:   time.Date(2025, 5, 7, 0, 0, 0, 0, time.UTC),
				LastReviewed: &reviewed,
				CorrectCount: 2,
			},
		},
	}

	data, err := BuildProgressExportCSV(rows)
	if err != nil {
		t.Fatalf("unexpected export error: %v", err)
	}
	if !bytes.HasPrefix(data, utf8BOM) {
		t.Fatalf("expected UTF-8 BOM prefix")
	}

	output := string(data[len(utf8BOM):])
	if !strings.HasPrefix(output, "id,term,reading,meaning,status,") {
		t.Fatalf("expected header row, got %q", output)
	}
	want := "v1,犬,いぬ,\"dog, hound\",review,6,2.60,2,2025-05-07,2025-05-01T09:30:00Z,2,0\r\n"
	if !strings.Contains(output, want) {
		t.Fatalf("expected row %q, got %q", want, output)
	}
}

func TestLoadProgressExportAndSort(t *testing.T) {
	testutil.SetupTestDB(t)
	testutil.SeedCatalog(t,
		dbpkg.Vocabulary{ID: "a", Term: "あ", Meaning: "a"},
		dbpkg.Vocabulary{ID: "b", Term: "い", Meaning: "b"},
	)
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	later := dbpkg.NewVocabProgress(4, "a", now.AddDate(0, 0, 3))
	sooner := dbpkg.NewVocabProgress(4, "b", now)
	for _, row := range []*dbpkg.VocabProgress{&later, &sooner} {
		if err := dbpkg.SaveProgress(row); err != nil {
			t.Fatalf("failed to save progress: %v", err)
		}
	}

	rows, err := LoadProgressExport(4)
	if err != nil {
		t.Fatalf("LoadProgressExport returned error: %v", err)
	}
	SortForExport(rows)
	if len(rows) != 2 || rows[0].Vocab.ID != "b" || rows[1].Vocab.ID != "a" {
		t.Fatalf("unexpected export order: %+v", rows)
	}

	empty, err := LoadProgressExport(99)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected no rows for unknown learner, got %v (%v)", empty, err)
	}
}

func TestExportFilename(t *testing.T) {
	got := ExportFilename(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	if got != "kotoba-progress-20250501.csv" {
		t.Fatalf("unexpected filename %q", got)
	}
}
