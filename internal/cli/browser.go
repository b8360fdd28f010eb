package cli

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/examprep/examprep/internal/catalog"
)

// TopicBrowser navigates the topic tree until the user picks a leaf topic.
type TopicBrowser struct {
	cli      *InteractiveCLI
	path     []string
	query    string
	mode     catalog.FilterMode
	selected *catalog.Topic
}

func (cli *InteractiveCLI) NewTopicBrowser() *TopicBrowser {
	return &TopicBrowser{
		cli:  cli,
		mode: catalog.FilterAll,
	}
}

// TakeSelected returns the picked topic once and clears it.
func (b *TopicBrowser) TakeSelected() (catalog.Topic, bool) {
	if b.selected == nil {
		return catalog.Topic{}, false
	}
	topic := *b.selected
	b.selected = nil
	return topic, true
}

func (b *TopicBrowser) Session(ctx context.Context) error {
	services := b.cli.services
	level, breadcrumb, err := services.Catalog.Children(b.path)
	if err != nil {
		slog.Default().Warn("resetting topic navigation", "path", b.path, "error", err)
		b.path = nil
		return nil
	}
	topics := catalog.Filter(level, b.query, b.mode, services.Bookmarks.IsBookmarked)

	b.cli.println()
	crumbs := []string{"Home"}
	for _, topic := range breadcrumb {
		crumbs = append(crumbs, topic.Title)
	}
	b.cli.println(b.cli.bold.Sprint(strings.Join(crumbs, " > ")))
	if b.query != "" || b.mode == catalog.FilterBookmarked {
		b.cli.println(b.cli.faint.Sprintf("Search: %q, showing %s topics", b.query, b.mode))
	}
	if len(topics) == 0 {
		b.cli.println("No topics found.")
	}
	for i, topic := range topics {
		marker := ""
		if !topic.IsLeaf() {
			marker = " >"
		}
		if services.Bookmarks.IsBookmarked(topic.ID) {
			marker += " *"
		}
		b.cli.printf("%3d. %s%s\n", i+1, topic.Title, marker)
		b.cli.println(b.cli.faint.Sprint("     " + topic.Description))
	}
	b.cli.println()

	command, err := b.cli.prompt(ctx, "Number to open, /text to search, * bookmarked only, +N to bookmark, .. back, q quit:")
	if err != nil {
		return err
	}
	switch {
	case command == "q":
		return errEnd
	case command == "..":
		if len(b.path) > 0 {
			b.path = b.path[:len(b.path)-1]
		}
		b.query = ""
	case command == "*":
		if b.mode == catalog.FilterBookmarked {
			b.mode = catalog.FilterAll
		} else {
			b.mode = catalog.FilterBookmarked
		}
	case strings.HasPrefix(command, "/"):
		b.query = strings.TrimSpace(command[1:])
	case strings.HasPrefix(command, "+"):
		topic, ok := pick(topics, command[1:])
		if !ok {
			b.cli.println("No such topic.")
			return nil
		}
		b.toggleBookmark(ctx, topic)
	default:
		topic, ok := pick(topics, command)
		if !ok {
			b.cli.println("No such topic.")
			return nil
		}
		if topic.IsLeaf() {
			b.selected = &topic
			return errEnd
		}
		b.path = append(b.path, topic.ID)
		b.query = ""
	}
	return nil
}

func (b *TopicBrowser) toggleBookmark(ctx context.Context, topic catalog.Topic) {
	bookmarked, err := b.cli.services.Bookmarks.Toggle(ctx, topic.ID)
	if bookmarked {
		b.cli.printf("Bookmarked %s.\n", topic.Title)
	} else {
		b.cli.printf("Removed the bookmark of %s.\n", topic.Title)
	}
	if err != nil {
		b.cli.println(b.cli.faint.Sprint("Warning: the change is kept for this session only."))
	}
}

func pick(topics []catalog.Topic, number string) (catalog.Topic, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(number))
	if err != nil || n < 1 || n > len(topics) {
		return catalog.Topic{}, false
	}
	return topics[n-1], true
}

// PickTopic lets the user browse to a leaf topic.
func (cli *InteractiveCLI) PickTopic(ctx context.Context) (catalog.Topic, bool, error) {
	browser := cli.NewTopicBrowser()
	if err := cli.Run(ctx, browser); err != nil {
		return catalog.Topic{}, false, err
	}
	topic, ok := browser.TakeSelected()
	return topic, ok, nil
}

// Browse alternates between the topic browser and the study or quiz session of the picked topic.
func (cli *InteractiveCLI) Browse(ctx context.Context, options QuizOptions) error {
	browser := cli.NewTopicBrowser()
	for ctx.Err() == nil {
		if err := cli.Run(ctx, browser); err != nil {
			return err
		}
		topic, ok := browser.TakeSelected()
		if !ok {
			return nil
		}

		choice, err := cli.prompt(ctx, "[s]tudy or [q]uiz "+topic.Title+"?")
		if errors.Is(err, errEnd) || errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}

		var session Session
		switch strings.ToLower(choice) {
		case "s", "study":
			session = cli.NewStudySession(topic)
		case "q", "quiz":
			session = cli.NewQuizSession(topic, options)
		default:
			continue
		}
		if err := cli.Run(ctx, session); err != nil {
			return err
		}
	}
	return nil
}
