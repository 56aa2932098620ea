package training

import (
	"fmt"
	"time"

	"github.com/smith3v/kotoba-srs/pkg/config"
	"github.com/smith3v/kotoba-srs/pkg/db"
	"github.com/smith3v/kotoba-srs/pkg/queue"
	"github.com/smith3v/kotoba-srs/pkg/srs"
)

// UserNow moves now into the learner's timezone. Every scheduling decision
// for the learner is taken on this clock so day boundaries fall on their
// midnight.
func UserNow(settings db.UserSettings, now time.Time) time.Time {
	return now.In(settings.Location())
}

func LoadSettings(userID int64) (db.UserSettings, error) {
	return db.LoadOrCreateSettings(userID, config.AppConfig.Study)
}

func QueueOptions(settings db.UserSettings) queue.Options {
	return settings.QueueOptions(config.AppConfig.Study.QueueOptions())
}

func BuildSessionQueue(userID int64, settings db.UserSettings, now time.Time) ([]queue.StudyCard, error) {
	catalog, progress, err := loadUserState(userID, settings.JLPTLevel())
	if err != nil {
		return nil, err
	}
	return queue.BuildStudyQueue(catalog, progress, QueueOptions(settings), UserNow(settings, now)), nil
}

func QueueCounts(userID int64, settings db.UserSettings, now time.Time) (queue.Counts, error) {
	catalog, progress, err := loadUserState(userID, settings.JLPTLevel())
	if err != nil {
		return queue.Counts{}, err
	}
	return queue.GetQueueCounts(catalog, progress, UserNow(settings, now)), nil
}

// LoadCards rebuilds study cards for the given ids in the given order,
// skipping ids no longer in the catalog.
func LoadCards(userID int64, ids []string) ([]queue.StudyCard, error) {
	rows, err := db.LoadCatalogByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	progress, err := db.LoadProgressMap(userID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	byID := make(map[string]db.Vocabulary, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	cards := make([]queue.StudyCard, 0, len(ids))
	for _, id := range ids {
		row, ok := byID[id]
		if !ok {
			continue
		}
		card := queue.StudyCard{Vocab: row.ToItem(), IsNew: true}
		if p, ok := progress[id]; ok {
			card.Progress = &p
			card.IsNew = p.Status == srs.StatusNew
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// ApplyReview schedules the row for quality q and writes the result back,
// including review counters.
func ApplyReview(row *db.VocabProgress, q srs.Quality, now time.Time) srs.Update {
	current := row.ToSRS()
	update := srs.CalculateNextReview(current, q, now)
	row.SetSRS(current.Apply(update, q, now))
	return update
}

type ReviewResult struct {
	Update srs.Update
	WasNew bool
	Stats  db.StudyStats
}

// GradeCard persists one review: progress row and the learner's daily stats.
func GradeCard(userID int64, settings db.UserSettings, vocabID string, q srs.Quality, now time.Time) (ReviewResult, error) {
	local := UserNow(settings, now)
	row, err := db.FindProgress(userID, vocabID)
	if err != nil {
		return ReviewResult{}, fmt.Errorf("load progress: %w", err)
	}
	if row == nil {
		fresh := db.NewVocabProgress(userID, vocabID, local)
		row = &fresh
	}
	wasNew := srs.Status(row.Status) == srs.StatusNew

	update := ApplyReview(row, q, local)
	if err := db.SaveProgress(row); err != nil {
		return ReviewResult{}, fmt.Errorf("save progress: %w", err)
	}
	stats, err := db.RecordReview(userID, db.StudyDate(local), db.ReviewOutcome{
		WasNew:  wasNew,
		Correct: q.Correct(),
	}, settings.DailyGoal)
	if err != nil {
		return ReviewResult{}, fmt.Errorf("record stats: %w", err)
	}
	return ReviewResult{Update: update, WasNew: wasNew, Stats: stats}, nil
}

func loadUserState(userID int64, level string) ([]queue.Item, map[string]srs.Progress, error) {
	rows, err := db.LoadCatalog(level)
	if err != nil {
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}
	progress, err := db.LoadProgressMap(userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load progress: %w", err)
	}
	catalog := make([]queue.Item, 0, len(rows))
	for _, row := range rows {
		catalog = append(catalog, row.ToItem())
	}
	return catalog, progress, nil
}
