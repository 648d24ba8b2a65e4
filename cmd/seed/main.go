// Package main seeds a running Libris server with a sample catalog: an admin,
// a handful of readers, books with document text, borrows and reviews. It
// drives the public HTTP API so the enrichment pipeline runs exactly as it
// would for real traffic.
package main

import (
	"bytes"
	"encoding/json/v2"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"
)

type envelope[T any] struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

type userData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type bookData struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Genre  string `json:"genre"`
}

type sampleBook struct {
	Title       string
	Author      string
	Genre       string
	Description string
	PublishYear string
	TotalCopies int
	Content     string
}

var sampleBooks = []sampleBook{
	{
		Title:       "The Great Adventure",
		Author:      "John Smith",
		Genre:       "Adventure",
		Description: "An epic journey through uncharted territories",
		PublishYear: "2023",
		TotalCopies: 5,
		Content: "The Great Adventure\n\nChapter 1: The Beginning\nThe sun rose over the mountains as our hero began the journey of a lifetime.\n\n" +
			"Chapter 2: The Challenge\nObstacles appeared at every turn, testing courage and resolve.\n\n" +
			"Chapter 3: The Discovery\nIn the heart of the wilderness, a profound discovery changed everything.\n\nThe End",
	},
	{
		Title:       "Mystery at Midnight Manor",
		Author:      "Sarah Detective",
		Genre:       "Mystery",
		Description: "A thrilling detective story with unexpected twists",
		PublishYear: "2024",
		TotalCopies: 3,
		Content: "Mystery at Midnight Manor\n\nChapter 1: The Invitation\nDetective Sarah received a mysterious invitation to Midnight Manor.\n\n" +
			"Chapter 2: The Crime\nA priceless artifact had vanished without a trace.\n\n" +
			"Chapter 3: The Solution\nThrough careful observation and brilliant deduction, the truth finally emerged.\n\nThe End",
	},
	{
		Title:       "Love in Paris",
		Author:      "Emma Romance",
		Genre:       "Romance",
		Description: "A heartwarming tale of love found in the City of Light",
		PublishYear: "2024",
		TotalCopies: 4,
		Content: "Love in Paris\n\nChapter 1: The Meeting\nTwo strangers met by chance at a café in Montmartre.\n\n" +
			"Chapter 2: The Connection\nAs they explored Paris together, their connection deepened.\n\n" +
			"Chapter 3: Forever\nUnder the Eiffel Tower at sunset, they realized they had found true love.\n\nThe End",
	},
	{
		Title:       "The Science of Tomorrow",
		Author:      "Dr. Tech Innovator",
		Genre:       "Science Fiction",
		Description: "Exploring the possibilities of future technology",
		PublishYear: "2024",
		TotalCopies: 3,
		Content: "The Science of Tomorrow\n\nChapter 1: The Invention\nIn a laboratory, a breakthrough changed the course of human history.\n\n" +
			"Chapter 2: The Implications\nAs the invention spread, society transformed in ways both wonderful and concerning.\n\n" +
			"Chapter 3: The Future\nHumanity stood at a crossroads, choosing between different possible futures.\n\nThe End",
	},
	{
		Title:       "Cooking with Joy",
		Author:      "Chef Maria",
		Genre:       "Cooking",
		Description: "Delicious recipes and culinary adventures",
		PublishYear: "2023",
		TotalCopies: 6,
		Content: "Cooking with Joy\n\nChapter 1: The Basics\nGreat cooking starts with understanding ingredients and techniques.\n\n" +
			"Chapter 2: The Recipes\nFrom simple comfort food to elegant dishes, each recipe tells a story.\n\n" +
			"Chapter 3: The Joy\nCooking is not just about feeding the body, but nourishing the soul.\n\nThe End",
	},
}

type seeder struct {
	baseURL string
	client  *http.Client
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the Libris server")
	flag.Parse()

	s := &seeder{
		baseURL: *baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}

	if err := s.run(); err != nil {
		fmt.Fprintf(os.Stderr, "Seed failed: %v\n", err)
		os.Exit(1)
	}
}

func (s *seeder) run() error {
	fmt.Println("Creating users...")
	admin, err := s.createUser("librarian@example.com", "The Librarian", "admin")
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	alice, err := s.createUser("alice@example.com", "Alice Reader", "member")
	if err != nil {
		return fmt.Errorf("create alice: %w", err)
	}
	bob, err := s.createUser("bob@example.com", "Bob Browser", "member")
	if err != nil {
		return fmt.Errorf("create bob: %w", err)
	}
	fmt.Printf("  %s (admin), %s, %s\n\n", admin.Email, alice.Email, bob.Email)

	fmt.Println("Uploading sample books...")
	books := make([]bookData, 0, len(sampleBooks))
	for i, sample := range sampleBooks {
		book, err := s.createBook(admin.ID, sample)
		if err != nil {
			return fmt.Errorf("create book %q: %w", sample.Title, err)
		}
		if err := s.uploadDocument(admin.ID, book.ID, sample.Title+".txt", sample.Content); err != nil {
			return fmt.Errorf("upload document for %q: %w", sample.Title, err)
		}
		books = append(books, book)
		fmt.Printf("  %d. %s by %s (%s)\n", i+1, book.Title, book.Author, book.Genre)
	}
	fmt.Println()

	// Borrow history gives the recommendation engine something to chew on:
	// Alice reads mysteries and romance, Bob reads adventure and sci-fi.
	fmt.Println("Recording borrows and reviews...")
	if err := s.borrowReviewReturn(alice.ID, books[1].ID, 5, "Could not put it down, the deduction scenes are brilliant."); err != nil {
		return err
	}
	if err := s.borrowReviewReturn(alice.ID, books[2].ID, 4, "Sweet and atmospheric, Paris practically glows."); err != nil {
		return err
	}
	if err := s.borrowReviewReturn(bob.ID, books[0].ID, 4, "A proper old-fashioned expedition yarn."); err != nil {
		return err
	}
	if err := s.borrowReviewReturn(bob.ID, books[3].ID, 2, "Interesting ideas but the ending fell flat for me."); err != nil {
		return err
	}
	// One open loan so the catalog shows a book in circulation.
	if err := s.borrow(alice.ID, books[4].ID); err != nil {
		return err
	}
	fmt.Println()

	fmt.Printf("Seeded %d books, 3 users, 5 borrows, 4 reviews.\n", len(books))
	fmt.Println("Summaries and sentiment fill in as the enrichment pipeline drains.")
	return nil
}

func (s *seeder) createUser(email, displayName, role string) (userData, error) {
	body := map[string]string{"email": email, "display_name": displayName, "role": role}
	return postJSON[userData](s, "", "/api/v1/users", body)
}

func (s *seeder) createBook(adminID string, sample sampleBook) (bookData, error) {
	body := map[string]any{
		"title":        sample.Title,
		"author":       sample.Author,
		"genre":        sample.Genre,
		"description":  sample.Description,
		"publish_year": sample.PublishYear,
		"total_copies": sample.TotalCopies,
	}
	return postJSON[bookData](s, adminID, "/api/v1/books", body)
}

func (s *seeder) uploadDocument(adminID, bookID, fileName, content string) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(part, content); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPut, s.baseURL+"/api/v1/books/"+bookID+"/document", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("X-User-ID", adminID)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, raw)
	}
	return nil
}

func (s *seeder) borrowReviewReturn(userID, bookID string, rating int, text string) error {
	if err := s.borrow(userID, bookID); err != nil {
		return err
	}
	review := map[string]any{"rating": rating, "text": text}
	if _, err := postJSON[map[string]any](s, userID, "/api/v1/books/"+bookID+"/reviews", review); err != nil {
		return fmt.Errorf("review book %s: %w", bookID, err)
	}
	if _, err := postJSON[map[string]any](s, userID, "/api/v1/books/"+bookID+"/return", nil); err != nil {
		return fmt.Errorf("return book %s: %w", bookID, err)
	}
	return nil
}

func (s *seeder) borrow(userID, bookID string) error {
	if _, err := postJSON[map[string]any](s, userID, "/api/v1/books/"+bookID+"/borrow", nil); err != nil {
		return fmt.Errorf("borrow book %s: %w", bookID, err)
	}
	return nil
}

// postJSON sends body to path and decodes the enveloped response data.
func postJSON[T any](s *seeder, userID, path string, body any) (T, error) {
	var zero T

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return zero, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(http.MethodPost, s.baseURL+path, reader)
	if err != nil {
		return zero, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, err
	}

	var env envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		return zero, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = env.Error
		}
		return zero, fmt.Errorf("server rejected request (status %d): %s", resp.StatusCode, msg)
	}
	return env.Data, nil
}
