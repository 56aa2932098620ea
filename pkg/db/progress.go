package db

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/smith3v/kotoba-srs/pkg/queue"
	"github.com/smith3v/kotoba-srs/pkg/srs"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (v Vocabulary) ToItem() queue.Item {
	return queue.Item{
		ID:              v.ID,
		Term:            v.Term,
		Reading:         v.Reading,
		Meaning:         v.Meaning,
		Synonyms:        DecodeList(v.Synonyms),
		ReadingSynonyms: DecodeList(v.ReadingSynonyms),
		ExampleJapanese: v.ExampleJapanese,
		ExampleEnglish:  v.ExampleEnglish,
	}
}

func (p VocabProgress) ToSRS() srs.Progress {
	return srs.Progress{
		Interval:       p.Interval,
		EaseFactor:     p.EaseFactor,
		Repetitions:    p.Repetitions,
		NextReview:     p.NextReview,
		LastReviewed:   p.LastReviewed,
		CorrectCount:   p.CorrectCount,
		IncorrectCount: p.IncorrectCount,
		Status:         srs.Status(p.Status),
	}
}

func (p *VocabProgress) SetSRS(s srs.Progress) {
	p.Interval = s.Interval
	p.EaseFactor = s.EaseFactor
	p.Repetitions = s.Repetitions
	p.NextReview = s.NextReview
	p.LastReviewed = s.LastReviewed
	p.CorrectCount = s.CorrectCount
	p.IncorrectCount = s.IncorrectCount
	p.Status = string(s.Status)
}

func NewVocabProgress(userID int64, vocabID string, now time.Time) VocabProgress {
	row := VocabProgress{UserID: userID, VocabID: vocabID}
	row.SetSRS(srs.NewProgress(now))
	return row
}

func EncodeList(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(raw)
}

func DecodeList(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil
	}
	return values
}

// LoadCatalog returns the catalog in study order: most frequent words first.
// A non-empty level keeps that JLPT level plus words that carry no level.
func LoadCatalog(level string) ([]Vocabulary, error) {
	var catalog []Vocabulary
	query := DB.Order("frequency_rank ASC, id ASC")
	if level != "" {
		query = query.Where("COALESCE(jlpt_level, '') IN ?", []string{level, ""})
	}
	if err := query.Find(&catalog).Error; err != nil {
		return nil, err
	}
	return catalog, nil
}

func LoadCatalogByIDs(ids []string) ([]Vocabulary, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []Vocabulary
	if err := DB.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func LoadProgressMap(userID int64) (map[string]srs.Progress, error) {
	var rows []VocabProgress
	if err := DB.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	progress := make(map[string]srs.Progress, len(rows))
	for _, row := range rows {
		progress[row.VocabID] = row.ToSRS()
	}
	return progress, nil
}

func FindProgress(userID int64, vocabID string) (*VocabProgress, error) {
	var row VocabProgress
	err := DB.Where("user_id = ? AND vocab_id = ?", userID, vocabID).First(&row).Error
	if err == nil {
		return &row, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, err
}

func SaveProgress(row *VocabProgress) error {
	if row == nil {
		return nil
	}
	return DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "vocab_id"},
		},
		UpdateAll: true,
	}).Create(row).Error
}

// DeleteUserData erases everything stored for a learner except the shared
// catalog.
func DeleteUserData(userID int64) error {
	return DB.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&VocabProgress{}, &StudyStats{}, &TrainingSession{}} {
			if err := tx.Where("user_id = ?", userID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Model(&UserSettings{}).Where("user_id = ?", userID).Updates(map[string]any{
			"current_streak":   0,
			"longest_streak":   0,
			"last_streak_date": "",
		}).Error
	})
}
