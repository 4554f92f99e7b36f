package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/nhle/voicenote/internal/api"
	"github.com/nhle/voicenote/internal/audio"
	"github.com/nhle/voicenote/internal/logging"
	"github.com/nhle/voicenote/internal/model"
	"github.com/nhle/voicenote/internal/query"
)

// MealUpload is a spoken meal description with optional overrides.
type MealUpload struct {
	Clip    audio.Clip
	Options model.MealTranscribeOptions
}

// Transcribe uploads a clip as a new note. A new note changes lists,
// folder counts, tags and todos, so all of them are refetched.
func (s *Service) Transcribe() *query.Mutator[audio.Clip, model.TranscriptionResult] {
	return query.NewMutator(query.Mutation[audio.Clip, model.TranscriptionResult]{
		Fn: func(ctx context.Context, clip audio.Clip) (model.TranscriptionResult, error) {
			rec := s.startRecording(ctx, model.RecordingNote, clip)
			res, err := s.api.Transcribe(ctx, filePart(clip))
			if err != nil {
				s.failRecording(ctx, rec, err)
				return model.TranscriptionResult{}, err
			}
			if rec != nil {
				rec.NoteID = &res.NoteID
			}
			s.finishRecording(ctx, rec)
			return res, nil
		},
		OnSuccess: func(res model.TranscriptionResult, _ audio.Clip, _ any) {
			s.logger.Info("clip transcribed",
				zap.Int(logging.FieldNoteID, res.NoteID),
				zap.String("folder", res.FolderPath),
				zap.Int("todos", len(res.Todos)),
			)
			s.invalidate(
				root(rootNotes), root(rootFolders), root(rootTags),
				root(rootTagNotes), root(rootSearch),
				root(rootTodos), root(rootNoteTodos),
			)
		},
	})
}

// TranscribeMeal uploads a clip as a meal entry.
func (s *Service) TranscribeMeal() *query.Mutator[MealUpload, model.MealEntry] {
	return query.NewMutator(query.Mutation[MealUpload, model.MealEntry]{
		Fn: func(ctx context.Context, up MealUpload) (model.MealEntry, error) {
			rec := s.startRecording(ctx, model.RecordingMeal, up.Clip)
			meal, err := s.api.TranscribeMeal(ctx, filePart(up.Clip), up.Options)
			if err != nil {
				s.failRecording(ctx, rec, err)
				return model.MealEntry{}, err
			}
			if rec != nil {
				rec.MealID = &meal.ID
			}
			s.finishRecording(ctx, rec)
			return meal, nil
		},
		OnSuccess: func(meal model.MealEntry, _ MealUpload, _ any) {
			s.cache.SetData(MealKey(meal.ID), meal)
			s.invalidate(root(rootMeals), root(rootMealCalendar))
		},
	})
}

func filePart(clip audio.Clip) api.FilePart {
	return api.FilePart{
		Field:       "file",
		Filename:    clip.Filename(),
		ContentType: clip.BaseMimeType(),
		Data:        clip.Data,
	}
}

func (s *Service) startRecording(ctx context.Context, kind model.RecordingKind, clip audio.Clip) *model.Recording {
	if s.recordings == nil {
		return nil
	}
	now := s.now()
	rec := &model.Recording{
		ID:        s.newID(),
		Kind:      kind,
		Source:    clip.Source,
		MimeType:  clip.MimeType,
		Bytes:     clip.Size(),
		Status:    model.RecordingPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.recordings.AddRecording(ctx, *rec); err != nil {
		s.logger.Warn("saving recording history", zap.Error(err))
		return nil
	}
	return rec
}

func (s *Service) finishRecording(ctx context.Context, rec *model.Recording) {
	if rec == nil {
		return
	}
	rec.Status = model.RecordingUploaded
	rec.Error = ""
	rec.UpdatedAt = s.now()
	if err := s.recordings.UpdateRecording(ctx, *rec); err != nil {
		s.logger.Warn("updating recording history", zap.Error(err))
	}
}

func (s *Service) failRecording(ctx context.Context, rec *model.Recording, cause error) {
	if rec == nil {
		return
	}
	rec.Status = model.RecordingFailed
	rec.Error = api.Message(cause)
	rec.UpdatedAt = s.now()
	if err := s.recordings.UpdateRecording(ctx, *rec); err != nil {
		s.logger.Warn("updating recording history", zap.Error(err))
	}
}
