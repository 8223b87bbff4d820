package extract

// Layout identifies one of the four page shapes the extractor knows how to
// parse. Detection picks one from page structure; parsing falls back
// through the remaining layouts in a fixed order when the detected one
// fails.
type Layout int

const (
	LayoutGeneral Layout = iota
	LayoutEntertainment
	LayoutSports
	LayoutCard
	// LayoutReadability marks an article extracted by the generic
	// Readability fallback rather than one of the four known selectors.
	LayoutReadability
	LayoutUnknown
)

func (l Layout) String() string {
	switch l {
	case LayoutGeneral:
		return "general"
	case LayoutEntertainment:
		return "entertainment"
	case LayoutSports:
		return "sports"
	case LayoutCard:
		return "card"
	case LayoutReadability:
		return "readability"
	default:
		return "unknown"
	}
}

// fallbackOrder is the fixed order parseWithFallback walks after the
// detected layout's own extractor fails.
var fallbackOrder = []Layout{LayoutGeneral, LayoutEntertainment, LayoutSports, LayoutCard}

type layoutSelectors struct {
	title     []string
	content   []string
	date      []string
	publisher []string
	author    []string
}

var generalSelectors = layoutSelectors{
	title: []string{
		"#title_area span",
		".media_end_head_title",
		"h2.media_end_head_headline",
	},
	content: []string{
		"#dic_area",
		"#articleBodyContents",
		"article#dic_area",
	},
	date: []string{
		".media_end_head_info_datestamp_time",
		"._ARTICLE_DATE_TIME",
		"span.media_end_head_info_datestamp_time",
	},
	publisher: []string{
		".media_end_head_top_logo img",
		".press_logo img",
		"a.media_end_head_top_logo_img img",
	},
	author: []string{
		".byline",
		".journalist_name",
		"span.byline_s",
	},
}

var entertainmentSelectors = layoutSelectors{
	title: []string{
		".end_tit",
		"h2.end_tit",
		".article_tit",
	},
	content: []string{
		".article_body",
		"#articeBody",
		"div.end_body_wrp",
	},
	date: []string{
		".article_info .author em",
		".info_date",
		"span.author em",
	},
}

var sportsSelectors = layoutSelectors{
	title: []string{
		".news_headline .title",
		"h4.title",
		".NewsEndMain_article_title__j5ND9",
		"h2.ArticleHead_article_title__qh8GV",
		".ArticleHead_article_title__qh8GV",
		"h2[class*='article_title']",
	},
	content: []string{
		".news_end",
		"#newsEndContents",
		"div.NewsEndMain_article_body__D5MUB",
		"article.Article_comp_news_article__XIpve",
		"article[class*='_article_body']",
		"div._article_content",
		"article#comp_news_article",
	},
	date: []string{
		".info span",
		".news_date",
		"em.date",
		".DateInfo_info_item__3yQPs em.date",
		".DateInfo_article_head_date_info__CS6Gx em.date",
		"div[class*='DateInfo'] em.date",
	},
	publisher: []string{
		".JournalistCard_press_name__s3Eup",
		"em[class*='press_name']",
		".press_name",
	},
	author: []string{
		".JournalistCard_name__0ZSAO",
		"em[class*='name']",
		".journalist_name",
	},
}

type cardSelectors struct {
	title    []string
	content  []string
	captions []string
}

var cardLayoutSelectors = cardSelectors{
	title: []string{
		"h2.end_tit",
		".media_end_head_title",
		"h3.tit_view",
	},
	content: []string{
		"div.end_ct_area",
		"div.card_area",
		"div.content_area",
	},
	captions: []string{
		"em.img_desc",
		".txt",
		"figcaption",
	},
}

// noiseSelectors are stripped from a content element's HTML before text
// extraction: scripts, ads, captions, bylines, and copyright boilerplate
// that would otherwise pollute the article body.
var noiseSelectors = []string{
	"em.img_desc",
	"div.link_news",
	".end_photo_org",
	".vod_player_wrap",
	"script",
	"style",
	"noscript",
	"iframe",
	".ad_wrap",
	".reporter_area",
	".byline_wrap",
	".copyright",
	".source",
}

// deletedIndicators are phrases that mark an article as removed or
// unavailable when found in the page title or a known error container.
var deletedIndicators = []string{
	"삭제된 기사",
	"없는 기사",
	"서비스 되지 않는",
	"페이지를 찾을 수 없습니다",
	"삭제되었거나",
	"존재하지 않는 기사",
	"기사가 삭제, 수정, 이동되었거나",
}

var errorContainerSelectors = []string{
	".error_content",
	".deleted_content",
	".article_error",
	".news_error",
	"#ct > .error_msg",
	".err_wrap",
}

var mainContentSelectors = []string{
	"#dic_area",
	".article_body",
	".news_end",
	"article",
}
