package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/satory074/dreamscope/internal/models"
	"github.com/satory074/dreamscope/internal/workflow"
)

type RecordCmd struct {
	Content string `arg:"" optional:"" help:"Dream content. Prompted for interactively when omitted."`
	Legacy  bool   `help:"Skip symbol curation and analyze in a single request."`
	Yes     bool   `short:"y" help:"Accept all extracted symbols without editing."`
}

func (c *RecordCmd) Run(ctx *Context) error {
	content := strings.TrimSpace(c.Content)
	if content == "" {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewText().
					Title("夢の内容").
					Description("昨夜の夢をできるだけ詳しく書いてください").
					Value(&content).
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return fmt.Errorf("夢の内容を入力してください")
						}
						return nil
					}),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive form error: %w", err)
		}
		content = strings.TrimSpace(content)
	}

	reqCtx := context.Background()

	var interp *models.Interpretation
	var err error
	if c.Legacy {
		interp, err = ctx.Client.AnalyzeDream(reqCtx, content)
	} else {
		interp, err = c.interpretCurated(reqCtx, ctx, content)
	}
	if err != nil {
		return err
	}

	entry, err := ctx.SaveInterpreted(content, interp, time.Now())
	if err != nil {
		return err
	}

	fmt.Printf("✓ Dream recorded (%s)\n", entry.CreatedAt.Format("2006-01-02 15:04"))
	printInterpretation(interp)
	return nil
}

// interpretCurated runs the two-phase flow: extract candidate symbols,
// let the user curate the list, then analyze the confirmed set.
func (c *RecordCmd) interpretCurated(reqCtx context.Context, ctx *Context, content string) (*models.Interpretation, error) {
	fmt.Println("シンボルを抽出しています...")
	extracted, err := ctx.Client.ExtractSymbols(reqCtx, content)
	if err != nil {
		return nil, err
	}

	session := workflow.NewSession()
	if err := session.Populate(content, extracted); err != nil {
		return nil, err
	}

	if !c.Yes {
		if err := curateSymbols(session); err != nil {
			return nil, err
		}
	}

	symbols, err := session.Submit()
	if err != nil {
		return nil, err
	}

	fmt.Println("解釈を生成しています...")
	return ctx.Client.InterpretWithSymbols(reqCtx, content, symbols)
}

func curateSymbols(session *workflow.Session) error {
	current := session.Symbols()
	options := make([]huh.Option[int], len(current))
	selected := make([]int, 0, len(current))
	for i, s := range current {
		label := fmt.Sprintf("%s (%s, %s)", s.Text, s.Category, s.Importance)
		options[i] = huh.NewOption(label, i).Selected(true)
		selected = append(selected, i)
	}

	var extra string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[int]().
				Title("シンボルの選択").
				Description("解釈に使うシンボルを選んでください").
				Options(options...).
				Value(&selected),
			huh.NewInput().
				Title("シンボルの追加").
				Description("カンマ区切りで追加（空欄で省略）").
				Value(&extra),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive form error: %w", err)
	}

	keep := make(map[int]bool, len(selected))
	for _, i := range selected {
		keep[i] = true
	}
	// Remove back to front so indices stay valid.
	for i := len(current) - 1; i >= 0; i-- {
		if !keep[i] {
			if err := session.Remove(i); err != nil {
				return err
			}
		}
	}

	for _, text := range strings.Split(extra, ",") {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if err := session.Add(text, "", ""); err != nil {
			return err
		}
	}
	return nil
}
