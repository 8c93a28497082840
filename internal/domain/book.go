package domain

// Book is a catalog entry served by the content provider.
type Book struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Description   string   `json:"description"` // Markdown
	CoverImage    string   `json:"coverImage"`
	Genres        []string `json:"genres"`
	GenreSlugs    []string `json:"genreSlugs"`
	PublishedDate string   `json:"publishedDate"`
	PageCount     int      `json:"pageCount"`
	Rating        float64  `json:"rating"`
	PDFURL        string   `json:"pdfUrl"`
	Featured      bool     `json:"featured"`
	Popular       bool     `json:"popular"`
}

// PrimaryGenre returns the first genre, or "General".
func (b *Book) PrimaryGenre() string {
	if len(b.Genres) > 0 && b.Genres[0] != "" {
		return b.Genres[0]
	}
	return "General"
}

// Genre is a catalog genre with its book count.
type Genre struct {
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	BookCount int    `json:"bookCount"`
}

// HeroContent is the personalized landing block.
type HeroContent struct {
	Headline    string `json:"headline"`
	Subheadline string `json:"subheadline"`
	CTAText     string `json:"ctaText"`
	CTALink     string `json:"ctaLink"`
	Book        *Book  `json:"book,omitempty"`
	Variant     string `json:"variant"` // new, continue, dormant or featured
}
