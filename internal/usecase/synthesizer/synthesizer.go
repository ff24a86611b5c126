package synthesizer

import (
	"context"

	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/dto"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/entity"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/infrastructure"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const _defaultAnswerWorkers = 4

type SynthesizerUseCase struct {
	answerWorkers int

	logger logger.Interface
}

func New(l logger.Interface, answerWorkers int) *SynthesizerUseCase {
	if answerWorkers <= 0 {
		answerWorkers = _defaultAnswerWorkers
	}

	return &SynthesizerUseCase{
		answerWorkers: answerWorkers,
		logger:        l,
	}
}

// Synthesize runs the three generative calls: description, question list,
// then one answer per question fanned out over a bounded worker group.
// Every failure is caught locally and degrades to an empty value; the method
// never aborts the event.
func (uc *SynthesizerUseCase) Synthesize(ctx context.Context, gen infrastructure.Generative, image []byte, mimeType string) dto.Synthesis {
	var synthesis dto.Synthesis

	// 1. description, best-effort
	description, err := gen.Describe(ctx, image, mimeType)
	if err != nil {
		uc.logger.Error(err, "SynthesizerUseCase - Synthesize - gen.Describe")
	} else {
		synthesis.Description = description
	}

	// 2. question list, best-effort
	questions, err := gen.ListQuestions(ctx, image, mimeType)
	if err != nil {
		uc.logger.Error(err, "SynthesizerUseCase - Synthesize - gen.ListQuestions")

		return synthesis
	}

	if len(questions) == 0 {
		return synthesis
	}

	// 3. answers, fan-out with per-question failure isolation; generation
	// order of the questions is preserved
	qa := make([]entity.QAPair, len(questions))

	var g errgroup.Group
	g.SetLimit(uc.answerWorkers)

	for i, question := range questions {
		g.Go(func() error {
			answer, err := gen.Answer(ctx, question, image, mimeType)
			if err != nil {
				uc.logger.Error(err, "SynthesizerUseCase - Synthesize - gen.Answer - question=%q", question)

				answer = ""
			}

			qa[i] = entity.QAPair{Question: question, Answer: answer}

			return nil
		})
	}

	_ = g.Wait() // workers never return errors

	synthesis.QA = qa

	return synthesis
}
