package lang

import (
	"fmt"
	"sync"
)

type Locale string

const (
	LocaleEnglish Locale = "en"
	LocaleChinese Locale = "zh"
)

type TabsStrings struct {
	History string
	Genres  string
	Authors string
	Search  string
}

type LibraryStrings struct {
	Loading         string
	LoadFailed      string
	Empty           string
	Unavailable     string
	BookCount       string
	LastReadPrefix  string
	LocalGenre      string
	FrontMatter     string
	OpenTemplate    string
	OpenFailed      string
	DonationBalance string
}

type SearchStrings struct {
	Placeholder   string
	Prompt        string
	InputHint     string
	FoundTemplate string
}

type ReaderStrings struct {
	LoadingDefault       string
	LoadingTitleTemplate string
	ChapterTemplate      string
	NoContent            string
	ErrorTemplate        string
	ImagePlaceholder     string
	PageTemplate         string
	SettingsTemplate     string
	SaveSettingsFailed   string
	ParagraphTemplate    string
}

type TOCStrings struct {
	Title          string
	StatusSingular string
	StatusPlural   string
	FilterPrompt   string
}

type CommonStrings struct {
	UnknownState string
}

type LayoutStrings struct {
	UnderlineLength int
}

type Strings struct {
	Tabs    TabsStrings
	Library LibraryStrings
	Search  SearchStrings
	Reader  ReaderStrings
	TOC     TOCStrings
	Common  CommonStrings
	Layout  LayoutStrings
}

var (
	mu sync.RWMutex

	translations = map[Locale]*Strings{
		LocaleChinese: {
			Tabs: TabsStrings{
				History: "历史",
				Genres:  "分类",
				Authors: "作者",
				Search:  "搜索",
			},
			Library: LibraryStrings{
				Loading:         "正在加载书库…",
				LoadFailed:      "书库加载失败: %v",
				Empty:           "这里还没有书",
				Unavailable:     "暂不可用",
				BookCount:       "%d 本书",
				LastReadPrefix:  "读到: ",
				LocalGenre:      "本地",
				FrontMatter:     "前言",
				OpenTemplate:    "正在打开「%s」…",
				OpenFailed:      "无法打开「%s」: %v",
				DonationBalance: "图书馆捐赠余额: %.8f FLOW",
			},
			Search: SearchStrings{
				Placeholder:   "输入书名或作者…",
				Prompt:        "搜索：",
				InputHint:     "输入关键词进行搜索",
				FoundTemplate: "找到%d本书籍",
			},
			Reader: ReaderStrings{
				LoadingDefault:       "章节加载中…",
				LoadingTitleTemplate: "正在加载「%s」…",
				ChapterTemplate:      "第%d章",
				NoContent:            "本章没有内容",
				ErrorTemplate:        "章节加载失败: %v (按 r 重试)",
				ImagePlaceholder:     "[%s 图片]",
				PageTemplate:         "%d / %d",
				SettingsTemplate:     "字号 %s · 行距 %s · 主题 %s · 宽度 %s · 亮度 %d · %s",
				SaveSettingsFailed:   "无法保存阅读设置: %v",
				ParagraphTemplate:    "%d 段",
			},
			TOC: TOCStrings{
				Title:          "目录",
				StatusSingular: "章",
				StatusPlural:   "章",
				FilterPrompt:   "搜索：",
			},
			Common: CommonStrings{
				UnknownState: "未知状态",
			},
			Layout: LayoutStrings{
				UnderlineLength: 48,
			},
		},
		LocaleEnglish: {
			Tabs: TabsStrings{
				History: "History",
				Genres:  "Genres",
				Authors: "Authors",
				Search:  "Search",
			},
			Library: LibraryStrings{
				Loading:         "Loading library…",
				LoadFailed:      "Failed to load library: %v",
				Empty:           "Nothing here yet",
				Unavailable:     "unavailable",
				BookCount:       "%d books",
				LastReadPrefix:  "Last read: ",
				LocalGenre:      "Local",
				FrontMatter:     "Front Matter",
				OpenTemplate:    "Opening \"%s\"…",
				OpenFailed:      "Unable to open \"%s\": %v",
				DonationBalance: "Library donation balance: %.8f FLOW",
			},
			Search: SearchStrings{
				Placeholder:   "Type a title or author…",
				Prompt:        "Search: ",
				InputHint:     "Type to search the library",
				FoundTemplate: "Found %d books",
			},
			Reader: ReaderStrings{
				LoadingDefault:       "Loading chapter…",
				LoadingTitleTemplate: "Loading %s…",
				ChapterTemplate:      "Chapter %d",
				NoContent:            "No content found for this chapter",
				ErrorTemplate:        "Failed to load chapter: %v (press r to retry)",
				ImagePlaceholder:     "[%s image]",
				PageTemplate:         "%d / %d",
				SettingsTemplate:     "size %s · spacing %s · theme %s · width %s · brightness %d · %s",
				SaveSettingsFailed:   "Unable to save reader settings: %v",
				ParagraphTemplate:    "%d paragraphs",
			},
			TOC: TOCStrings{
				Title:          "Table of Contents",
				StatusSingular: "chapter",
				StatusPlural:   "chapters",
				FilterPrompt:   "Search:",
			},
			Common: CommonStrings{
				UnknownState: "Unknown state",
			},
			Layout: LayoutStrings{
				UnderlineLength: 60,
			},
		},
	}

	availableLocales = []Locale{
		LocaleEnglish,
		LocaleChinese,
	}

	currentLocale = LocaleEnglish
	current       = translations[currentLocale]
)

func AvailableLocales() []Locale {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Locale, len(availableLocales))
	copy(out, availableLocales)
	return out
}

func SetLocale(loc Locale) bool {
	mu.Lock()
	defer mu.Unlock()
	strings, ok := translations[loc]
	if !ok {
		return false
	}
	currentLocale = loc
	current = strings
	return true
}

func CurrentLocale() Locale {
	mu.RLock()
	defer mu.RUnlock()
	return currentLocale
}

func Active() *Strings {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

func ChapterTitle(index int) string {
	return fmt.Sprintf(Active().Reader.ChapterTemplate, index)
}

func ReaderLoadingTitle(title string) string {
	return fmt.Sprintf(Active().Reader.LoadingTitleTemplate, title)
}

func ReaderError(err error) string {
	return fmt.Sprintf(Active().Reader.ErrorTemplate, err)
}

func PageIndicator(current, total int) string {
	return fmt.Sprintf(Active().Reader.PageTemplate, current, total)
}

func ParagraphCount(n int) string {
	return fmt.Sprintf(Active().Reader.ParagraphTemplate, n)
}

func BookCount(n int) string {
	return fmt.Sprintf(Active().Library.BookCount, n)
}

func LibraryLoadFailed(err error) string {
	return fmt.Sprintf(Active().Library.LoadFailed, err)
}

func OpenBook(title string) string {
	return fmt.Sprintf(Active().Library.OpenTemplate, title)
}

func OpenBookFailed(title string, err error) string {
	return fmt.Sprintf(Active().Library.OpenFailed, title, err)
}

func DonationBalance(flow float64) string {
	return fmt.Sprintf(Active().Library.DonationBalance, flow)
}

func SearchFound(count int) string {
	return fmt.Sprintf(Active().Search.FoundTemplate, count)
}

func ReaderSettings(size, spacing, theme, width string, brightness int, mode string) string {
	return fmt.Sprintf(Active().Reader.SettingsTemplate, size, spacing, theme, width, brightness, mode)
}
