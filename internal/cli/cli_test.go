package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/examprep/examprep/internal/bootstrap"
	"github.com/examprep/examprep/internal/catalog"
	"github.com/examprep/examprep/internal/history"
	"github.com/examprep/examprep/internal/inference"
	mock_cli "github.com/examprep/examprep/internal/mocks/cli"
	mock_diagram "github.com/examprep/examprep/internal/mocks/diagram"
	mock_inference "github.com/examprep/examprep/internal/mocks/inference"
	"github.com/examprep/examprep/internal/savedquestion"
	"github.com/examprep/examprep/internal/testutil"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

var sdlc = catalog.Topic{
	ID:          "sdlc",
	Title:       "Systems Development Life Cycle (SDLC)",
	Description: "Understanding phases like planning, analysis, design, implementation, and maintenance.",
}

func newTestCLI(t *testing.T, client inference.Client, input string) (*InteractiveCLI, *bytes.Buffer, *bootstrap.Services) {
	t.Helper()
	services := testutil.NewServices(t, client)
	var out bytes.Buffer
	return NewInteractiveCLI(services, strings.NewReader(input), &out).WithLocation(time.UTC), &out, services
}

func TestInteractiveCLI_Run(t *testing.T) {
	tests := []struct {
		name    string
		results []error
		wantErr string
	}{
		{
			name:    "session ends",
			results: []error{nil, nil, errEnd},
		},
		{
			name:    "session fails",
			results: []error{nil, errors.New("boom")},
			wantErr: "session.Session() > boom",
		},
		{
			name:    "cancelled session is not an error",
			results: []error{context.Canceled},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			session := mock_cli.NewMockSession(ctrl)
			calls := make([]any, 0, len(tt.results))
			for _, result := range tt.results {
				calls = append(calls, session.EXPECT().Session(gomock.Any()).Return(result))
			}
			gomock.InOrder(calls...)

			cli, _, _ := newTestCLI(t, nil, "")
			err := cli.Run(context.Background(), session)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestInteractiveCLI_Confirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{input: "y\n", want: true},
		{input: "Yes\n", want: true},
		{input: "n\n", want: false},
		{input: "\n", want: false},
		{input: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cli, out, _ := newTestCLI(t, nil, tt.input)
			got, err := cli.Confirm(context.Background(), "Delete?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, strings.HasPrefix(out.String(), "Delete? (y/N): "))
		})
	}
}

func twoQuestions() []inference.QuizQuestion {
	return []inference.QuizQuestion{
		{
			Question:           "Which phase comes first?",
			Options:            []string{"Planning", "Testing", "Deployment", "Maintenance"},
			CorrectAnswerIndex: 0,
			Explanation:        "Planning starts the life cycle.",
		},
		{
			Question:           "Which phase verifies the system?",
			Options:            []string{"Planning", "Testing", "Deployment", "Maintenance"},
			CorrectAnswerIndex: 1,
		},
	}
}

func TestQuizSession_Complete(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock_inference.NewMockClient(ctrl)
	client.EXPECT().GenerateQuiz(gomock.Any(), sdlc, inference.DifficultyMedium).Return(twoQuestions(), nil)

	cli, out, services := newTestCLI(t, client, "hard?\nmedium\nA\nnext\n\nA\n\nn\n")
	require.NoError(t, cli.Run(context.Background(), cli.NewQuizSession(sdlc, QuizOptions{})))

	output := out.String()
	assert.Contains(t, output, `invalid difficulty "hard?"`)
	assert.Contains(t, output, "Medium quiz: Systems Development Life Cycle (SDLC)")
	assert.Contains(t, output, "Question 1 of 2")
	assert.Contains(t, output, "  A. Planning\n")
	assert.Contains(t, output, "Correct!\nPlanning starts the life cycle.\n")
	assert.Contains(t, output, "Press Enter to continue.")
	assert.Contains(t, output, "Question 2 of 2")
	assert.Contains(t, output, "Incorrect. The correct answer is B. Testing\n")
	assert.Contains(t, output, "Press Enter to see your results")
	assert.Contains(t, output, "You scored 1 out of 2 (50%)")
	assert.Contains(t, output, "  1. [correct] Which phase comes first?\n")
	assert.Contains(t, output, "  2. [incorrect] Which phase verifies the system?\n")

	results := services.History.List()
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Score)
	assert.Equal(t, 2, results[0].TotalQuestions)
	assert.Equal(t, inference.DifficultyMedium, results[0].Difficulty)
}

func TestQuizSession_SaveQuestion(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock_inference.NewMockClient(ctrl)
	client.EXPECT().GenerateQuiz(gomock.Any(), sdlc, inference.DifficultyEasy).Return(twoQuestions()[:1], nil)

	cli, out, services := newTestCLI(t, client, "s\nz\n1\ns\ns\nq\n")
	require.NoError(t, cli.Run(context.Background(), cli.NewQuizSession(sdlc, QuizOptions{Difficulty: inference.DifficultyEasy})))

	output := out.String()
	assert.Equal(t, 2, strings.Count(output, "Question saved!"))
	assert.Equal(t, 1, strings.Count(output, "Question removed from saved items."))
	assert.Contains(t, output, "Please answer with a letter between A and D.")
	assert.Contains(t, output, "Correct!")
	assert.NotContains(t, output, "Quiz Complete!")

	saved := services.Saved.List()
	require.Len(t, saved, 1)
	assert.Equal(t, "sdlc-0-Which phase comes fi", saved[0].ID)
	assert.Empty(t, services.History.List())
}

func TestQuizSession_GenerationFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock_inference.NewMockClient(ctrl)
	gomock.InOrder(
		client.EXPECT().GenerateQuiz(gomock.Any(), sdlc, inference.DifficultyHard).Return(nil, errors.New("status code: 503")),
		client.EXPECT().GenerateQuiz(gomock.Any(), sdlc, inference.DifficultyHard).Return(nil, nil),
	)

	cli, out, _ := newTestCLI(t, client, "hard\ny\nhard\nn\n")
	require.NoError(t, cli.Run(context.Background(), cli.NewQuizSession(sdlc, QuizOptions{})))

	output := out.String()
	assert.Contains(t, output, "Failed to generate the quiz. The AI model may be temporarily unavailable.\nTry again? (y/N):")
	assert.Contains(t, output, "The AI model returned no questions. Please try again.\nTry again? (y/N):")
}

func TestParseOption(t *testing.T) {
	tests := []struct {
		line   string
		want   int
		wantOK bool
	}{
		{line: "a", want: 0, wantOK: true},
		{line: " D ", want: 3, wantOK: true},
		{line: "2", want: 1, wantOK: true},
		{line: "E", wantOK: false},
		{line: "5", wantOK: false},
		{line: "0", wantOK: false},
		{line: "!", wantOK: false},
		{line: "ab", wantOK: false},
		{line: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := parseOption(tt.line, 4)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

const guideWithDiagram = "## Phases\n\n- **Plan** the work\n\n```mermaid\ngraph TD\nA-->B\n```\n\nDone."

func TestStudySession_GenerateAndExport(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock_inference.NewMockClient(ctrl)
	renderer := mock_diagram.NewMockRenderer(ctrl)
	client.EXPECT().GenerateStudyGuide(gomock.Any(), sdlc).Return(inference.StudyGuide{
		Content: guideWithDiagram,
		Sources: []inference.Source{{URI: "https://example.com/sdlc", Title: "SDLC overview"}},
	}, nil)
	renderer.EXPECT().Render(gomock.Any(), gomock.Any(), "graph TD\nA-->B").Return(`<svg xmlns="http://www.w3.org/2000/svg"><g></g></svg>`, nil)

	cli, out, services := newTestCLI(t, client, "e\nx\nd\nq\n")
	services.Diagrams = renderer
	require.NoError(t, cli.Run(context.Background(), cli.NewStudySession(sdlc)))

	outputs := services.Config.Outputs.Directory
	output := out.String()
	assert.Contains(t, output, "Generating study guide...")
	assert.Contains(t, output, "\nPhases\n\n  • Plan the work\n")
	assert.Contains(t, output, "[Diagram 1]\n    graph TD\n    A-->B\n")
	assert.Contains(t, output, "  - SDLC overview (https://example.com/sdlc)\n")
	assert.Contains(t, output, "Diagram 1 rendered: "+filepath.Join(outputs, "diagrams", "sdlc-1.svg"))
	assert.Contains(t, output, "Exported "+filepath.Join(outputs, "sdlc.md"))
	assert.Contains(t, output, "Unknown command.")
	assert.Contains(t, output, "There are no failed diagrams to retry.")
	assert.FileExists(t, filepath.Join(outputs, "diagrams", "sdlc-1.svg"))
	assert.FileExists(t, filepath.Join(outputs, "sdlc.md"))

	_, ok := services.StudyCache.Load(context.Background(), "sdlc")
	assert.True(t, ok)
}

func TestStudySession_CachedGuideAndFailedRegenerate(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock_inference.NewMockClient(ctrl)
	client.EXPECT().GenerateStudyGuide(gomock.Any(), sdlc).Return(inference.StudyGuide{}, errors.New("timeout"))

	cli, out, services := newTestCLI(t, client, "r\nd\nq\n")
	_, err := services.StudyCache.Save(context.Background(), "sdlc",
		inference.StudyGuide{Content: "Cached guide.\n\n```mermaid\ngraph LR\nA-->B\n```"},
		time.Date(2026, 3, 4, 10, 6, 0, 0, time.UTC))
	require.NoError(t, err)

	require.NoError(t, cli.Run(context.Background(), cli.NewStudySession(sdlc)))

	output := out.String()
	assert.Equal(t, 1, strings.Count(output, "Generating study guide..."))
	assert.Equal(t, 2, strings.Count(output, "Cached guide."))
	assert.Contains(t, output, "Generated at 2026-03-04 10:06")
	assert.Contains(t, output, "An error occurred while generating the study guide: timeout. Please check your API key and network connection.")
	assert.Contains(t, output, "Diagram 1 could not be rendered: diagram renderer not loaded")

	entry, ok := services.StudyCache.Load(context.Background(), "sdlc")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(entry.Content, "Cached guide."))
}

func TestStudySession_ExportWithoutGuide(t *testing.T) {
	cli, out, _ := newTestCLI(t, inference.Unconfigured{KeyEnv: "GEMINI_API_KEY"}, "e\nq\n")
	require.NoError(t, cli.Run(context.Background(), cli.NewStudySession(sdlc)))

	output := out.String()
	assert.Contains(t, output, "API Key not found. Please set GEMINI_API_KEY in the environment or the config file")
	assert.Contains(t, output, "There is no study guide to export.")
}

func TestTopicBrowser(t *testing.T) {
	t.Run("navigate, bookmark and filter", func(t *testing.T) {
		cli, out, services := newTestCLI(t, nil, "9\n+2\n*\n1\n")
		topic, ok, err := cli.PickTopic(context.Background())
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "requirements-gathering", topic.ID)
		assert.Equal(t, []string{"requirements-gathering"}, services.Bookmarks.List())

		output := out.String()
		assert.Contains(t, output, "Home > System Analysis and Design\n")
		assert.Contains(t, output, "Bookmarked Requirements Gathering.")
		assert.Contains(t, output, "  2. Requirements Gathering *\n")
		assert.Contains(t, output, `Search: "", showing bookmarked topics`)
	})

	t.Run("search, back and quit", func(t *testing.T) {
		cli, out, _ := newTestCLI(t, nil, "/xyzzy\n/\n9\n..\n99\nq\n")
		_, ok, err := cli.PickTopic(context.Background())
		require.NoError(t, err)
		assert.False(t, ok)

		output := out.String()
		assert.Contains(t, output, "No topics found.")
		assert.Contains(t, output, "No such topic.")
		assert.Equal(t, 1, strings.Count(output, "Home > System Analysis and Design\n"))
	})
}

func TestBrowse_StartsQuizOnPickedTopic(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock_inference.NewMockClient(ctrl)
	client.EXPECT().GenerateQuiz(gomock.Any(), gomock.Any(), inference.DifficultyEasy).
		DoAndReturn(func(_ context.Context, topic catalog.Topic, _ inference.Difficulty) ([]inference.QuizQuestion, error) {
			assert.Equal(t, "sdlc", topic.ID)
			return twoQuestions()[:1], nil
		})

	cli, out, services := newTestCLI(t, client, "9\n1\nquiz\nb\n\nn\nq\n")
	require.NoError(t, cli.Browse(context.Background(), QuizOptions{Difficulty: inference.DifficultyEasy}))

	assert.Contains(t, out.String(), "[s]tudy or [q]uiz Systems Development Life Cycle (SDLC)?")
	assert.Contains(t, out.String(), "You scored 0 out of 1 (0%)")
	assert.Len(t, services.History.List(), 1)
}

func TestWriteHistory(t *testing.T) {
	cli, out, _ := newTestCLI(t, nil, "")
	cli.WriteHistory(nil)
	cli.WriteHistory([]history.QuizResult{
		history.NewResult(sdlc, inference.DifficultyMedium, 4, 5, time.Date(2026, 3, 4, 10, 6, 7, 0, time.UTC)),
	})

	assert.Equal(t, "You haven't completed any quizzes yet.\n"+
		"2026-03-04 10:06  80%   medium  4/5  Systems Development Life Cycle (SDLC)\n", out.String())
}

func TestWriteSavedQuestions(t *testing.T) {
	cli, out, _ := newTestCLI(t, nil, "")
	cli.WriteSavedQuestions(nil)
	cli.WriteSavedQuestions([]savedquestion.SavedQuestion{
		savedquestion.New("sdlc", "SDLC", 0, twoQuestions()[0]),
	})

	assert.Equal(t, "You haven't saved any questions yet.\n"+
		"SDLC  sdlc-0-Which phase comes fi\n"+
		"Which phase comes first?\n\n"+
		"  A. Planning\n"+
		"  B. Testing\n"+
		"  C. Deployment\n"+
		"  D. Maintenance\n"+
		"Explanation: Planning starts the life cycle.\n", out.String())
}

func TestWriteTopicTree(t *testing.T) {
	cli, out, _ := newTestCLI(t, nil, "")
	cli.WriteTopicTree([]catalog.Topic{
		{ID: "system-analysis", Title: "System Analysis", SubTopics: []catalog.Topic{sdlc}},
	}, func(id string) bool { return id == "sdlc" })

	assert.Equal(t, "System Analysis (system-analysis)\n"+
		"  Systems Development Life Cycle (SDLC) (sdlc) *\n", out.String())
}

func TestClearCollections(t *testing.T) {
	ctx := context.Background()
	result := history.NewResult(sdlc, inference.DifficultyEasy, 1, 1, time.Now())
	question := savedquestion.New("sdlc", "SDLC", 0, twoQuestions()[0])

	t.Run("declined", func(t *testing.T) {
		cli, out, services := newTestCLI(t, nil, "n\nn\n")
		require.NoError(t, services.History.Append(ctx, result))
		require.NoError(t, services.Saved.Save(ctx, question))

		require.NoError(t, cli.ClearHistory(ctx, false))
		require.NoError(t, cli.ClearSavedQuestions(ctx, false))
		assert.Len(t, services.History.List(), 1)
		assert.Len(t, services.Saved.List(), 1)
		assert.Contains(t, out.String(), "Are you sure you want to permanently delete your quiz history? (y/N):")
	})

	t.Run("confirmed", func(t *testing.T) {
		cli, out, services := newTestCLI(t, nil, "y\n")
		require.NoError(t, services.History.Append(ctx, result))
		require.NoError(t, services.Saved.Save(ctx, question))

		require.NoError(t, cli.ClearHistory(ctx, false))
		require.NoError(t, cli.ClearSavedQuestions(ctx, true))
		assert.Empty(t, services.History.List())
		assert.Empty(t, services.Saved.List())
		assert.Contains(t, out.String(), "Quiz history cleared.\n")
		assert.Contains(t, out.String(), "All saved questions have been removed.\n")
	})
}

func TestRemoveSavedQuestion(t *testing.T) {
	ctx := context.Background()
	cli, out, services := newTestCLI(t, nil, "")
	question := savedquestion.New("sdlc", "SDLC", 0, twoQuestions()[0])
	require.NoError(t, services.Saved.Save(ctx, question))

	assert.EqualError(t, cli.RemoveSavedQuestion(ctx, "missing"), `no saved question with id "missing"`)
	require.NoError(t, cli.RemoveSavedQuestion(ctx, question.ID))
	assert.False(t, services.Saved.IsSaved(question.ID))
	assert.Equal(t, "Question removed.\n", out.String())
}
