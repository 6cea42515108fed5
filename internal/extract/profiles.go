package extract

import "github.com/IshaanNene/NewsGoat/internal/config"

func css(selectors ...string) []config.Strategy {
	out := make([]config.Strategy, len(selectors))
	for i, s := range selectors {
		out[i] = config.Strategy{Kind: KindCSS, Selector: s}
	}
	return out
}

func withAttr(attr string, strategies []config.Strategy) []config.Strategy {
	for i := range strategies {
		strategies[i].Attribute = attr
	}
	return strategies
}

func meta(key string) config.Strategy {
	return config.Strategy{Kind: KindMeta, Selector: key}
}

var commonBoilerplate = []string{
	"cookie", "javascript", "browser", "subscribe", "follow us", "share this", "related topics",
}

// BBCProfile is the built-in extraction profile for BBC News.
func BBCProfile() config.SiteProfile {
	return config.SiteProfile{
		LinkStrategies: css(
			`a[data-testid="internal-link"]`,
			`h2[data-testid="card-headline"] a`,
			`h3[data-testid="card-headline"] a`,
			`[data-testid="topic-page"] a`,
			`a[href*="/news/"]`,
			`.gs-c-promo-heading a`,
			`.media__link`,
			`h2 a[href*="/news/"]`,
			`h3 a[href*="/news/"]`,
			`[data-testid="promo-text"] a`,
			`.gel-layout a[href*="/news/"]`,
		),
		ExcludeFragments: []string{
			"live", "topics", "av/", "video", "pictures", "in_pictures",
			"entertainment", "newsbeat", "reality_check",
		},
		ArticlePatterns: []string{
			`/news/[a-zA-Z-]+-\d{8}$`,
			`/news/articles/[a-zA-Z0-9-]+$`,
			`/news/[a-zA-Z-]+-\d{8}\?`,
		},
		RequireHost: "bbc.com",
		MaxLinks:    30,

		TitleStrategies: append(css(
			`h1[data-testid="headline"]`,
			`header h1`,
			`[data-testid="headline"]`,
			`h1.story-body__h1`,
			`.story-headline h1`,
			`h1#main-heading`,
			`h1`,
		), meta("og:title")),
		MinTitleLength: 5,

		ContentStrategies: css(
			`[data-component="text-block"] p`,
			`.story-body__inner p`,
			`.story-body div p`,
			`[data-testid="bodyText"] p`,
			`article p`,
			`#story-body p`,
			`.article-body p`,
			`main p`,
		),
		MinParagraphLength:  20,
		BoilerplatePhrases:  commonBoilerplate,
		ReadabilityFallback: true,

		AuthorStrategies: append(css(
			`[data-testid="byline"]`,
			`[data-testid="byline-name"]`,
			`.author-name`,
			`.byline__name`,
			`.story-body .byline`,
			`span[data-testid="byline"]`,
		), meta("author")),
		DateStrategies: withAttr("datetime|text", css(
			`[data-testid="timestamp"]`,
			`time[datetime]`,
			`.story-body .date`,
			`.date-stamp`,
			`time`,
		)),
		ImageStrategies: withAttr("src|data-src", css(
			`[data-testid="hero-image"] img`,
			`[data-testid="image-block"] img`,
			`figure img[src*="ichef.bbci.co.uk"]`,
			`.story-body img`,
			`article img`,
			`main img`,
		)),
		ImageHostHints: []string{"ichef.bbci.co.uk", "bbc.co.uk"},

		CategoryRules: []config.CategoryRule{
			{Match: "world", Category: "World"},
			{Match: "uk", Category: "UK"},
			{Match: "england", Category: "UK"},
			{Match: "scotland", Category: "UK"},
			{Match: "business", Category: "Business"},
			{Match: "technology", Category: "Technology"},
			{Match: "tech", Category: "Technology"},
			{Match: "science", Category: "Science"},
			{Match: "health", Category: "Health"},
			{Match: "politics", Category: "Politics"},
			{Match: "entertainment", Category: "Entertainment"},
			{Match: "sport", Category: "Sports"},
		},
		BreadcrumbStrategies: css(`nav a`, `.breadcrumb a`, `[data-testid="breadcrumb"] a`),
		BreadcrumbSkip:       []string{"home", "news", "bbc"},
		DefaultCategory:      "General",
	}
}

// CNNProfile is the built-in extraction profile for CNN.
func CNNProfile() config.SiteProfile {
	return config.SiteProfile{
		LinkStrategies: css(
			`a[href*="/2024/"]`,
			`a[href*="/2025/"]`,
			`a[href*="/2026/"]`,
			`.card a`,
			`h3 a`,
			`.headline a`,
		),
		ExcludeFragments: []string{"live-updates", "/videos/", "/video/", "gallery"},
		ArticlePatterns:  []string{`/20\d{2}/\d{2}/\d{2}/`},
		RequireHost:      "cnn.com",
		MaxLinks:         25,

		TitleStrategies: append(css(
			`h1.headline__text`,
			`h1[data-editable="headlineText"]`,
			`.pg-headline`,
			`h1`,
		), meta("og:title")),

		ContentStrategies: css(
			`.article__content p`,
			`.zn-body__paragraph`,
			`.paragraph-inline-video p`,
			`div[data-component-name="ArticleBody"] p`,
			`.storytext p`,
		),
		MinParagraphLength:  20,
		BoilerplatePhrases:  commonBoilerplate,
		ReadabilityFallback: true,

		AuthorStrategies: append(css(
			`.byline__name`,
			`.metadata__byline a`,
			`.author-name`,
			`[rel="author"]`,
		), meta("author")),
		DateStrategies: withAttr("datetime|text", css(
			`.timestamp`,
			`.update-time`,
			`time`,
			`.metadata__date`,
		)),
		ImageStrategies: withAttr("src|data-src", css(
			`.media__image img`,
			`.image__dam-img`,
			`article img`,
			`.lead-media img`,
		)),

		CategoryRules: []config.CategoryRule{
			{Match: "/politics/", Category: "Politics"},
			{Match: "/business/", Category: "Business"},
			{Match: "/health/", Category: "Health"},
			{Match: "/tech/", Category: "Technology"},
			{Match: "/sport/", Category: "Sports"},
			{Match: "/world/", Category: "World"},
		},
		BreadcrumbStrategies: css(`.breadcrumb a`, `.nav a`),
		BreadcrumbSkip:       []string{"home", "cnn"},
		DefaultCategory:      "General",
	}
}

// ReutersProfile is the built-in extraction profile for Reuters.
func ReutersProfile() config.SiteProfile {
	return config.SiteProfile{
		LinkStrategies: css(
			`a[href*="/world/"]`,
			`a[href*="/business/"]`,
			`a[href*="/technology/"]`,
			`a[href*="/markets/"]`,
			`a[href*="/legal/"]`,
			`a[href*="/breakingviews/"]`,
			`a[data-testid*="Link"]`,
			`h3 a[href*="reuters.com"]`,
			`h2 a[href*="reuters.com"]`,
		),
		ExcludeFragments: []string{"/live/", "/tv/", "/video/", "/graphics/", "/picture/", "/audio/"},
		ArticlePatterns:  []string{`/[a-z0-9-]+-\d{4}-\d{2}-\d{2}$`},
		RequireHost:      "reuters.com",
		MinPathSegments:  2,
		MaxLinks:         25,

		TitleStrategies: append(css(
			`[data-testid="ArticleHeader-headline"]`,
			`[data-testid="Heading"]`,
			`h1[data-testid="Heading"]`,
			`.ArticleHeader_headline`,
			`h1.text__text`,
			`h1`,
		), meta("og:title")),
		MinTitleLength: 10,

		ParagraphSequence:    `[data-testid="paragraph-%d"]`,
		ParagraphSequenceMax: 30,
		ContentStrategies: css(
			`.StandardArticleBody_body p`,
			`.ArticleBodyWrapper p`,
			`div[data-module="ArticleBody"] p`,
			`.text__text p`,
			`article p`,
		),
		MinParagraphLength:  15,
		BoilerplatePhrases:  commonBoilerplate,
		ReadabilityFallback: true,

		AuthorStrategies: append(css(
			`[data-testid="AuthorBylineCard"]`,
			`.AuthorByline_authorName`,
			`.author-name`,
			`[data-module="BylineCard"] span`,
			`.text__text .text__text`,
		), meta("author")),
		AuthorSkipPrefixes: []string{"reuters"},
		DateStrategies: withAttr("datetime|text", css(
			`[data-testid="ArticleHeader-date"]`,
			`time[datetime]`,
			`.ArticleHeader_date`,
			`.timestamp`,
			`time`,
		)),
		ImageStrategies: withAttr("src|data-src", css(
			`[data-testid="Image"] img`,
			`.PlaceholderInlineVideo_image img`,
			`figure img`,
			`.media-object img`,
			`img[src*="cloudfront"]`,
		)),

		CategoryRules: []config.CategoryRule{
			{Match: "/world/", Category: "World"},
			{Match: "/business/", Category: "Business"},
			{Match: "/technology/", Category: "Technology"},
			{Match: "/markets/", Category: "Markets"},
			{Match: "/breakingviews/", Category: "Opinion"},
			{Match: "/sports/", Category: "Sports"},
			{Match: "/lifestyle/", Category: "Lifestyle"},
			{Match: "/legal/", Category: "Legal"},
		},
		DefaultCategory: "General",
	}
}
