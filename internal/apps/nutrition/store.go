package nutrition

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// inChunkSize bounds the number of ids bound into a single IN clause.
const inChunkSize = 500

func chunkIDs(ids []uuid.UUID, size int) [][]uuid.UUID {
	var chunks [][]uuid.UUID
	for len(ids) > size {
		chunks = append(chunks, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}

func entryIDs(entries []FoodEntry) []uuid.UUID {
	ids := make([]uuid.UUID, len(entries))
	for i := range entries {
		ids[i] = entries[i].ID
	}
	return ids
}

func fetchMacronutrients(ctx context.Context, db *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]Macronutrients, error) {
	out := make(map[uuid.UUID]Macronutrients, len(ids))
	for _, chunk := range chunkIDs(ids, inChunkSize) {
		var rows []Macronutrients
		if err := db.WithContext(ctx).Where("food_entry_id IN ?", chunk).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			out[r.FoodEntryID] = r
		}
	}
	return out, nil
}

func fetchMicronutrients(ctx context.Context, db *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]Micronutrients, error) {
	out := make(map[uuid.UUID]Micronutrients, len(ids))
	for _, chunk := range chunkIDs(ids, inChunkSize) {
		var rows []Micronutrients
		if err := db.WithContext(ctx).Where("food_entry_id IN ?", chunk).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			out[r.FoodEntryID] = r
		}
	}
	return out, nil
}

// attachNutrients loads both child rows for entries in two batched reads.
func attachNutrients(ctx context.Context, db *gorm.DB, entries []FoodEntry) error {
	if len(entries) == 0 {
		return nil
	}
	ids := entryIDs(entries)

	macros, err := fetchMacronutrients(ctx, db, ids)
	if err != nil {
		return err
	}
	micros, err := fetchMicronutrients(ctx, db, ids)
	if err != nil {
		return err
	}

	for i := range entries {
		if m, ok := macros[entries[i].ID]; ok {
			m := m
			entries[i].Macronutrients = &m
		}
		if m, ok := micros[entries[i].ID]; ok {
			m := m
			entries[i].Micronutrients = &m
		}
	}
	return nil
}
