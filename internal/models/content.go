package models

import "time"

// DifficultyParams defines the skew-normal distribution a level draws its
// target question difficulty from. Set at content-authoring time; the
// rating engine only ever reads it.
type DifficultyParams struct {
	Mean  float64 `json:"mean"`
	SD    float64 `json:"sd"`
	Alpha float64 `json:"alpha"`
}

type Subject struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Chapter struct {
	ID        int64     `json:"id"`
	SubjectID int64     `json:"subject_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Unit struct {
	ID        int64     `json:"id"`
	ChapterID int64     `json:"chapter_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Level struct {
	ID          int64            `json:"id"`
	UnitID      int64            `json:"unit_id"`
	Name        string           `json:"name"`
	LevelNumber int              `json:"level_number"`
	RequiredXP  int              `json:"required_xp"`
	TotalTime   int              `json:"total_time"`
	Difficulty  DifficultyParams `json:"difficulty"`
	CreatedAt   time.Time        `json:"created_at"`
}

type Topic struct {
	ID        int64  `json:"id"`
	ChapterID int64  `json:"chapter_id"`
	Name      string `json:"name"`
}
