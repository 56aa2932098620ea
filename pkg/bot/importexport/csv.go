package importexport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/smith3v/kotoba-srs/pkg/db"
	"gorm.io/gorm"
)

// CatalogColumns is the column order used when a file has no header row.
var CatalogColumns = []string{
	"id",
	"term",
	"reading",
	"meaning",
	"synonyms",
	"reading_synonyms",
	"example_japanese",
	"example_english",
	"jlpt",
	"frequency",
}

const listSeparator = "|"

// catalogNamespace seeds ids for rows imported without one, so importing
// the same file twice updates instead of duplicating.
var catalogNamespace = uuid.MustParse("6f1c1f0e-5d0a-4b8e-9a4c-2f7e0b1d3c55")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const maxDelimiterSampleRecords = 20

type CatalogRow struct {
	ID              string
	Term            string
	Reading         string
	Meaning         string
	Synonyms        []string
	ReadingSynonyms []string
	ExampleJapanese string
	ExampleEnglish  string
	JlptLevel       string
	FrequencyRank   int
}

func (r CatalogRow) Vocabulary() db.Vocabulary {
	return db.Vocabulary{
		ID:              r.ID,
		Term:            r.Term,
		Reading:         r.Reading,
		Meaning:         r.Meaning,
		Synonyms:        db.EncodeList(r.Synonyms),
		ReadingSynonyms: db.EncodeList(r.ReadingSynonyms),
		ExampleJapanese: r.ExampleJapanese,
		ExampleEnglish:  r.ExampleEnglish,
		JlptLevel:       r.JlptLevel,
		FrequencyRank:   r.FrequencyRank,
	}
}

// ParseCatalogCSV reads catalog rows. Rows without a term or meaning are
// skipped and counted.
func ParseCatalogCSV(data []byte) ([]CatalogRow, int, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	delimiter := detectCSVDelimiter(data)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	var rows []CatalogRow
	skipped := 0
	checkedHeader := false
	columns := columnIndex(CatalogColumns)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, skipped, err
		}
		if isEmptyCSVRecord(record) {
			skipped++
			continue
		}
		if !checkedHeader {
			checkedHeader = true
			if isHeaderRecord(record) {
				columns = columnIndex(record)
				continue
			}
		}
		row, ok := parseCatalogRecord(record, columns)
		if !ok {
			skipped++
			continue
		}
		rows = append(rows, row)
	}

	return rows, skipped, nil
}

func parseCatalogRecord(record []string, columns map[string]int) (CatalogRow, bool) {
	field := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	row := CatalogRow{
		ID:              field("id"),
		Term:            field("term"),
		Reading:         field("reading"),
		Meaning:         field("meaning"),
		Synonyms:        splitList(field("synonyms")),
		ReadingSynonyms: splitList(field("reading_synonyms")),
		ExampleJapanese: field("example_japanese"),
		ExampleEnglish:  field("example_english"),
		JlptLevel:       strings.ToUpper(field("jlpt")),
	}
	if row.Term == "" || row.Meaning == "" {
		return CatalogRow{}, false
	}
	if raw := field("frequency"); raw != "" {
		rank, err := strconv.Atoi(raw)
		if err != nil || rank < 0 {
			return CatalogRow{}, false
		}
		row.FrequencyRank = rank
	}
	if row.ID == "" {
		row.ID = uuid.NewSHA1(catalogNamespace, []byte(row.Term+"\x00"+row.Reading)).String()
	}
	return row, true
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, listSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func columnIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return index
}

func detectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', '\t', ';'}
	bestDelimiter := candidates[0]
	bestScore := -1

	for _, delimiter := range candidates {
		score, err := scoreDelimiter(data, delimiter, maxDelimiterSampleRecords)
		if err != nil {
			continue
		}
		if score > bestScore {
			bestScore = score
			bestDelimiter = delimiter
		}
	}

	if bestScore <= 0 {
		return ','
	}
	return bestDelimiter
}

func scoreDelimiter(data []byte, delimiter rune, maxRecords int) (int, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	counts := make(map[int]int)
	recordsSeen := 0

	for recordsSeen < maxRecords {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
		if isEmptyCSVRecord(record) {
			continue
		}
		recordsSeen++

		if len(record) < 2 {
			continue
		}
		counts[len(record)]++
	}

	best := 0
	for _, score := range counts {
		if score > best {
			best = score
		}
	}
	return best, nil
}

func isEmptyCSVRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func isHeaderRecord(record []string) bool {
	columns := columnIndex(record)
	_, hasTerm := columns["term"]
	_, hasMeaning := columns["meaning"]
	return hasTerm && hasMeaning
}

// UpsertCatalog writes rows keyed by id. Learner progress is untouched.
func UpsertCatalog(rows []CatalogRow) (int, int, error) {
	inserted := 0
	updated := 0

	if len(rows) == 0 {
		return inserted, updated, nil
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			vocab := row.Vocabulary()
			result := tx.Model(&db.Vocabulary{}).
				Where("id = ?", vocab.ID).
				Updates(map[string]any{
					"term":             vocab.Term,
					"reading":          vocab.Reading,
					"meaning":          vocab.Meaning,
					"synonyms":         vocab.Synonyms,
					"reading_synonyms": vocab.ReadingSynonyms,
					"example_japanese": vocab.ExampleJapanese,
					"example_english":  vocab.ExampleEnglish,
					"jlpt_level":       vocab.JlptLevel,
					"frequency_rank":   vocab.FrequencyRank,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected > 0 {
				updated++
				continue
			}
			if err := tx.Create(&vocab).Error; err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	return inserted, updated, nil
}

// ProgressRow pairs a catalog entry with one learner's progress on it.
type ProgressRow struct {
	Vocab    db.Vocabulary
	Progress db.VocabProgress
}

var progressExportHeader = []string{
	"id", "term", "reading", "meaning", "status",
	"interval_days", "ease_factor", "repetitions",
	"next_review", "last_reviewed", "correct", "incorrect",
}

func LoadProgressExport(userID int64) ([]ProgressRow, error) {
	var progress []db.VocabProgress
	if err := db.DB.Where("user_id = ?", userID).Find(&progress).Error; err != nil {
		return nil, err
	}
	if len(progress) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(progress))
	for _, p := range progress {
		ids = append(ids, p.VocabID)
	}
	vocab, err := db.LoadCatalogByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]db.Vocabulary, len(vocab))
	for _, v := range vocab {
		byID[v.ID] = v
	}
	rows := make([]ProgressRow, 0, len(progress))
	for _, p := range progress {
		v, ok := byID[p.VocabID]
		if !ok {
			v = db.Vocabulary{ID: p.VocabID}
		}
		rows = append(rows, ProgressRow{Vocab: v, Progress: p})
	}
	return rows, nil
}

func BuildProgressExportCSV(rows []ProgressRow) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.Write(utf8BOM); err != nil {
		return nil, err
	}

	writer := csv.NewWriter(&buf)
	writer.UseCRLF = true

	if err := writer.Write(progressExportHeader); err != nil {
		return nil, err
	}
	for _, row := range rows {
		p := row.Progress
		lastReviewed := ""
		if p.LastReviewed != nil {
			lastReviewed = p.LastReviewed.Format(time.RFC3339)
		}
		record := []string{
			row.Vocab.ID,
			row.Vocab.Term,
			row.Vocab.Reading,
			row.Vocab.Meaning,
			p.Status,
			strconv.Itoa(p.Interval),
			strconv.FormatFloat(p.EaseFactor, 'f', 2, 64),
			strconv.Itoa(p.Repetitions),
			p.NextReview.Format(time.DateOnly),
			lastReviewed,
			strconv.Itoa(p.CorrectCount),
			strconv.Itoa(p.IncorrectCount),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func ExportFilename(now time.Time) string {
	return fmt.Sprintf("kotoba-progress-%s.csv", now.Format("20060102"))
}

// SortForExport orders rows by next review date, then term.
func SortForExport(rows []ProgressRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Progress.NextReview, rows[j].Progress.NextReview
		if !a.Equal(b) {
			return a.Before(b)
		}
		return rows[i].Vocab.Term < rows[j].Vocab.Term
	})
}
