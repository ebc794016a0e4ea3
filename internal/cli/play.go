package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"toeic-quiz-service/internal/app"
	"toeic-quiz-service/internal/domain"
	"toeic-quiz-service/internal/httpsource"
)

const answerAttempts = 3

// NewPlayCmd runs an interactive quiz in the terminal against a running
// server. The same session state machine the server uses drives the flow;
// only the question source and attempt store are remote.
func NewPlayCmd() *cobra.Command {
	var (
		serverURL string
		userID    string
		category  string
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := httpsource.NewClient(serverURL)
			session := app.NewSession(userID, client, client, zap.NewNop())
			return runPlay(cmd.Context(), session, category, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:3020", "quiz server base URL")
	cmd.Flags().StringVar(&userID, "user", "", "user id (required)")
	cmd.Flags().StringVar(&category, "category", "", "category to study (empty for all)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func runPlay(ctx context.Context, session *app.Session, category string, in io.Reader, out io.Writer) error {
	if err := session.StartQuiz(ctx, category); err != nil {
		switch {
		case errors.Is(err, domain.ErrDailyLimitReached):
			fmt.Fprintln(out, "Daily free limit reached. Try again tomorrow or upgrade.")
			return nil
		case errors.Is(err, domain.ErrEmptyCategory):
			fmt.Fprintln(out, "No questions available for this category.")
			return nil
		default:
			return err
		}
	}

	reader := bufio.NewReader(in)
	snapshot := session.Snapshot()

	for i, question := range snapshot.Questions {
		printQuestion(out, i+1, question)

		if optionIndex, ok := readAnswer(reader, out, len(question.Options)); ok {
			if err := session.SetAnswer(i, optionIndex); err != nil {
				fmt.Fprintf(out, "answer not recorded: %v\n", err)
			}
		} else {
			fmt.Fprintln(out, "Skipping.")
		}
		if err := session.NextQuestion(); err != nil {
			return err
		}
	}

	results := session.Snapshot()
	fmt.Fprintf(out, "\nFinal score: %d/%d\n", results.Score, len(results.Questions))
	for i, question := range results.Questions {
		answer, answered := results.Answers[i]
		if answered && answer != question.CorrectAnswer {
			fmt.Fprintf(out, "Q%d: correct answer was %s. %s\n",
				i+1, question.Options[question.CorrectAnswer], question.Explanation)
		}
	}

	// Give the background attempt write a moment to land before exiting.
	flushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = session.WaitPersisted(flushCtx)
	return nil
}

func printQuestion(out io.Writer, number int, question domain.Question) {
	fmt.Fprintf(out, "\nQ%d: %s\n\n", number, question.Prompt)
	for i, option := range question.Options {
		fmt.Fprintf(out, "%c. %s\n", 'A'+i, option)
	}
	fmt.Fprintln(out)
}

func readAnswer(reader *bufio.Reader, out io.Writer, optionCount int) (int, bool) {
	if optionCount < 1 {
		return -1, false
	}
	maxLetter := byte('A' + optionCount - 1)

	for attempt := 1; attempt <= answerAttempts; attempt++ {
		line, err := reader.ReadString('\n')
		if err != nil {
			return -1, false
		}
		line = strings.ToUpper(strings.TrimSpace(line))
		if len(line) == 1 && line[0] >= 'A' && line[0] <= maxLetter {
			return int(line[0] - 'A'), true
		}
		if attempt < answerAttempts {
			fmt.Fprintf(out, "Enter a letter A-%c.\n", maxLetter)
		}
	}
	return -1, false
}
