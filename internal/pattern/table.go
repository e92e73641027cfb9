// Package pattern implements the legacy static keyword table. It maps
// normalized message text to a category tag by exact set membership, in a
// fixed order with first match winning. The table is pure data; reply
// composition for each tag lives in the rules package.
package pattern

// Tag identifies a legacy keyword category.
type Tag string

// Known tags, in table order.
const (
	TagDog          Tag = "dog"
	TagMicchi       Tag = "micchi"
	TagKitada       Tag = "kitada"
	TagNekoKanji    Tag = "neko_kanji"
	TagNekoHiragana Tag = "neko_hiragana"
	TagNekoKatakana Tag = "neko_katakana"
	TagNekoRomaji   Tag = "neko_romaji"
	TagTest         Tag = "test"
)

type entry struct {
	aliases map[string]bool
	tag     Tag
}

func aliasSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// table is evaluated in order; the first alias set containing the text wins.
// Alias spellings are kept exactly as the bot has always known them.
var table = []entry{
	{aliasSet("いぬ", "イヌ", "犬", "dog"), TagDog},
	{aliasSet("みっちー", "ミッチー", "漫画太郎", "漫☆画太郎"), TagMicchi},
	{aliasSet("kitada", "北田", "きただ", "キタダ", "北田さん", "きたださん", "キタダサン"), TagKitada},
	{aliasSet("猫", "寝子", "姫"), TagNekoKanji},
	{aliasSet("ねこ", "ひめ"), TagNekoHiragana},
	{aliasSet("ネコ", "ヒメ"), TagNekoKatakana},
	{aliasSet("cat", "neko"), TagNekoRomaji},
	{aliasSet("test"), TagTest},
}

// Lookup returns the tag for normalized text, if any. Absence of a match is
// not an error; callers fall through to the next branch.
func Lookup(normalized string) (Tag, bool) {
	if normalized == "" {
		return "", false
	}
	for _, e := range table {
		if e.aliases[normalized] {
			return e.tag, true
		}
	}
	return "", false
}
