package ask

import (
	"bytes"
	"context"
	_ "embed"
	"text/template"

	"github.com/gema-dev/gema/pkg/model"
	"github.com/gema-dev/gema/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

//go:embed prompt/answer.md
var answerPromptRaw string

var answerPromptTmpl = template.Must(template.New("answer").Parse(answerPromptRaw))

const systemPrompt = "You are a careful analyst of startup funding records. You answer strictly from the evidence you are given."

type promptSource struct {
	N       int
	Label   string
	Content string
}

type promptInput struct {
	Question string
	Sources  []promptSource
	Strict   bool
}

func buildPrompt(question string, evidence []*model.Record, strict bool) (string, error) {
	input := promptInput{
		Question: question,
		Strict:   strict,
	}
	for i, r := range evidence {
		label := r.Source
		if label == "" {
			label = string(r.ID)
		}
		input.Sources = append(input.Sources, promptSource{
			N:       i + 1,
			Label:   label,
			Content: r.Document(),
		})
	}

	var buf bytes.Buffer
	if err := answerPromptTmpl.Execute(&buf, input); err != nil {
		return "", goerr.Wrap(err, "failed to render prompt")
	}
	return buf.String(), nil
}

// generate builds the evidence-enumerating prompt and calls the
// generation backend with bounded retry. Each attempt has its own
// timeout; exhaustion surfaces as ErrGenerationUnavailable, which the
// caller must keep distinct from any grounding verdict.
func (u *UseCase) generate(ctx context.Context, question string, evidence []*model.Record, strict bool) (string, error) {
	prompt, err := buildPrompt(question, evidence, strict)
	if err != nil {
		return "", err
	}

	var answer string
	err = u.cfg.Retry.Do(ctx, func(ctx context.Context) error {
		genCtx := ctx
		if u.cfg.GenerateTimeout > 0 {
			var cancel context.CancelFunc
			genCtx, cancel = context.WithTimeout(ctx, u.cfg.GenerateTimeout)
			defer cancel()
		}

		text, genErr := u.llm.Generate(genCtx, systemPrompt, prompt)
		if genErr != nil {
			logging.From(ctx).Warn("generation attempt failed", "error", genErr)
			return genErr
		}
		answer = text
		return nil
	})
	if err != nil {
		return "", goerr.Wrap(model.ErrGenerationUnavailable, "generation failed after retries",
			goerr.V("attempts", u.cfg.Retry.MaxAttempts),
			goerr.V("cause", err.Error()))
	}

	return answer, nil
}
