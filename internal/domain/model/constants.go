package model

// EmotionTag マーカーに付ける感情タグ
type EmotionTag struct {
	ID     string `json:"id"`
	Emoji  string `json:"emoji"`
	Name   string `json:"name"`    // 韓国語名
	NameEn string `json:"name_en"` // 英語名
}

// EmotionTags アプリで使用できる感情タグの一覧（表示順）
var EmotionTags = []EmotionTag{
	{ID: "happy", Emoji: "😊", Name: "행복", NameEn: "Happy"},
	{ID: "sad", Emoji: "😢", Name: "슬픔", NameEn: "Sad"},
	{ID: "angry", Emoji: "😡", Name: "분노", NameEn: "Angry"},
	{ID: "fear", Emoji: "😨", Name: "두려움", NameEn: "Fear"},
	{ID: "surprise", Emoji: "😮", Name: "놀람", NameEn: "Surprise"},
	{ID: "peaceful", Emoji: "😌", Name: "평온", NameEn: "Peaceful"},
	{ID: "love", Emoji: "💕", Name: "사랑", NameEn: "Love"},
	{ID: "celebration", Emoji: "🎉", Name: "축하", NameEn: "Celebration"},
	{ID: "achievement", Emoji: "💪", Name: "성취감", NameEn: "Achievement"},
	{ID: "inspiration", Emoji: "🎨", Name: "영감", NameEn: "Inspiration"},
	{ID: "delicious", Emoji: "🍜", Name: "맛있음", NameEn: "Delicious"},
	{ID: "music", Emoji: "🎵", Name: "음악", NameEn: "Music"},
	{ID: "beauty", Emoji: "🌸", Name: "아름다움", NameEn: "Beauty"},
	{ID: "memory", Emoji: "💭", Name: "추억", NameEn: "Memory"},
	{ID: "energy", Emoji: "🏃‍♂️", Name: "활력", NameEn: "Energy"},
	{ID: "tired", Emoji: "😴", Name: "피곤함", NameEn: "Tired"},
	{ID: "lonely", Emoji: "🪞", Name: "외로움", NameEn: "Lonely"},
	{ID: "nostalgic", Emoji: "📷", Name: "그리움", NameEn: "Nostalgic"},
	{ID: "anxious", Emoji: "😬", Name: "불안함", NameEn: "Anxious"},
	{ID: "grateful", Emoji: "🙏", Name: "감사함", NameEn: "Grateful"},
	{ID: "hopeful", Emoji: "🌤️", Name: "희망", NameEn: "Hopeful"},
}

// EmotionByID IDから感情タグを取得
func EmotionByID(id string) (EmotionTag, bool) {
	for _, tag := range EmotionTags {
		if tag.ID == id {
			return tag, true
		}
	}
	return EmotionTag{}, false
}
