package cli

import (
	"bytes"
	"context"
	"errors"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
)

type fakeIngest struct {
	texts    []string
	metadata []map[string]any
}

func (f *fakeIngest) Ingest(_ context.Context, text string, metadata map[string]any) (int, error) {
	f.texts = append(f.texts, text)
	f.metadata = append(f.metadata, metadata)
	return 2, nil
}

type fakeUploads struct {
	names []string
}

func (f *fakeUploads) Upload(_ context.Context, filename string, data []byte) (*domain.UploadResult, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, domain.InvalidArgument("%s is not a PDF", filename)
	}
	f.names = append(f.names, filename)
	return &domain.UploadResult{
		Success:  true,
		Chunks:   1,
		FileInfo: domain.FileInfo{OriginalName: filename, Size: int64(len(data)), TextLength: len(data)},
	}, nil
}

type fakeRetrieval struct {
	topK int
}

func (f *fakeRetrieval) Retrieve(_ context.Context, query string, topK int) ([]domain.RetrievalResult, error) {
	f.topK = topK
	if query == "nothing" {
		return nil, nil
	}
	return []domain.RetrievalResult{
		{ID: "doc_1_0", Score: 0.91, Text: "Mitochondria are the\npowerhouse of the cell.", Metadata: map[string]any{domain.MetadataSource: "biology.pdf"}},
		{ID: "doc_1_1", Score: 0.42, Text: "Ribosomes build proteins."},
	}, nil
}

type fakeAnswers struct{}

func (fakeAnswers) Answer(_ context.Context, question string) (*domain.Answer, error) {
	return &domain.Answer{
		Response: "The answer to " + question,
		Sources:  []domain.RetrievalResult{{ID: "doc_1_0", Score: 0.9, Text: "source passage"}},
	}, nil
}

type fakeIndex struct{}

func (fakeIndex) Stats(context.Context) (domain.IndexStats, error) {
	return domain.IndexStats{
		Name:         "pdfs",
		Dimension:    768,
		TotalVectors: 12,
		Namespaces:   map[string]int{"": 10, "drafts": 2},
	}, nil
}

type fakeSettingsService struct {
	values map[string]string
	checks []driving.ProviderCheck
}

func (f *fakeSettingsService) Get() (domain.Settings, error) {
	return domain.DefaultSettings(), nil
}

func (f *fakeSettingsService) Set(key, value string) error {
	if key == "bogus" {
		return domain.InvalidArgument("unknown setting %q", key)
	}
	f.values[key] = value
	return nil
}

func (f *fakeSettingsService) Keys() []string {
	return []string{"embedding.provider", "index.provider"}
}

func (f *fakeSettingsService) Path() string {
	return "/tmp/pdfchat/config.toml"
}

func (f *fakeSettingsService) Check(context.Context, domain.Settings) []driving.ProviderCheck {
	return f.checks
}

type fakeBootstrapper struct {
	services *Services
	settings *fakeSettingsService
	withGen  bool
	closed   bool
}

func (b *fakeBootstrapper) SettingsService(string) (driving.SettingsService, error) {
	return b.settings, nil
}

func (b *fakeBootstrapper) Settings(string) (domain.Settings, error) {
	s := domain.DefaultSettings()
	s.Embedding.APIKey = "AIzaSyExampleKey1234"
	s.Index.APIKey = "pc-example-key-5678"
	s.Index.Name = "pdfs"
	return s, nil
}

func (b *fakeBootstrapper) Services(_ context.Context, _ string, withGenerator bool) (*Services, error) {
	if b.services == nil {
		return nil, errors.New("embedding: not configured")
	}
	b.withGen = withGenerator
	svc := *b.services
	svc.Close = func() { b.closed = true }
	return &svc, nil
}

// setupTestServices installs fake services and returns the bootstrapper and a cleanup func.
func setupTestServices() (*fakeBootstrapper, func()) {
	b := &fakeBootstrapper{
		services: &Services{
			Ingest:    &fakeIngest{},
			Uploads:   &fakeUploads{},
			Retrieval: &fakeRetrieval{},
			Answers:   fakeAnswers{},
			Index:     fakeIndex{},
			Settings:  domain.DefaultSettings(),
		},
		settings: &fakeSettingsService{values: map[string]string{}},
	}
	original := bootstrapper
	SetBootstrapper(b)

	return b, func() {
		SetBootstrapper(original)
		searchTopK, searchJSON = 0, false
		askShowSources, askJSON = false, false
		ingestText, ingestSource = "", ""
		indexJSON = false
	}
}

// execute runs the root command with args and returns its combined output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
