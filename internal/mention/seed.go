package mention

import (
	"context"
	"fmt"
	"time"
)

// SeedSampleData inserts a handful of demo records so the review UI has
// something to show on a fresh install. It is a no-op when the store
// already holds data.
func SeedSampleData(ctx context.Context, store *Store) error {
	summary, err := store.GetSummary(ctx)
	if err != nil {
		return err
	}
	if summary.Total > 0 {
		return nil
	}

	now := time.Now()
	publish := func(t time.Time) *time.Time { return &t }

	samples := []Record{
		{
			Platform:       PlatformXHS,
			Keyword:        "brand&expensive",
			Title:          "These prices are out of reach, a single apple costs a fortune",
			Content:        "Bought one apple for 18 yuan and a durian for 98. The fruit is fresh but the pricing is absurd for everyday shopping.",
			URL:            "https://xiaohongshu.com/discovery/item/sample1",
			Author:         "user12345",
			PublishTime:    publish(now.Add(-3 * time.Hour)),
			CrawlTime:      now,
			HotScore:       12000,
			Sentiment:      SentimentNegative,
			SentimentScore: -0.85,
			Category:       CategoryPrice,
			Status:         StatusUnprocessed,
		},
		{
			Platform:       PlatformDouyin,
			Keyword:        "brand&assassin",
			Title:          "Store visit: is it really a fruit assassin?",
			Content:        "Three items came to 150 yuan at checkout. Quality is genuinely good, but the price is steep for an ordinary family.",
			URL:            "https://douyin.com/video/sample2",
			Author:         "store-reviewer",
			PublishTime:    publish(now.Add(-4 * time.Hour)),
			CrawlTime:      now,
			HotScore:       56000,
			Sentiment:      SentimentNeutral,
			SentimentScore: -0.12,
			Category:       CategoryPrice,
			Status:         StatusUnprocessed,
		},
		{
			Platform:       PlatformWeibo,
			Keyword:        "brand",
			Title:          "Membership card refund refused after moving away",
			Content:        "Loaded 500 yuan onto a membership card, moved to a city with no stores, and they will not refund the balance. Support was unhelpful.",
			URL:            "https://weibo.com/sample3",
			Author:         "consumer-rights",
			PublishTime:    publish(now.Add(-5 * time.Hour)),
			CrawlTime:      now,
			HotScore:       8900,
			Sentiment:      SentimentNegative,
			SentimentScore: -0.75,
			Category:       CategoryMembership,
			Status:         StatusUnprocessed,
		},
		{
			Platform:       PlatformBilibili,
			Keyword:        "brand",
			Title:          "The durian was worth every yuan",
			Content:        "88 per jin but incredibly sweet with lots of flesh. Paying extra for reliable quality feels fair to me.",
			URL:            "https://bilibili.com/video/sample4",
			Author:         "food-blogger",
			PublishTime:    publish(now.Add(-2 * time.Hour)),
			CrawlTime:      now,
			HotScore:       3200,
			Sentiment:      SentimentPositive,
			SentimentScore: 0.88,
			Category:       CategoryProduct,
			Status:         StatusUnprocessed,
		},
		{
			Platform:       PlatformXHS,
			Keyword:        "brand&cannot-afford",
			Title:          "The 20k-salary meme is overblown",
			Content:        "The meme says even a 20k monthly salary cannot cover this fruit chain. Exaggerated, but it is noticeably pricier than the corner shop.",
			URL:            "https://xiaohongshu.com/discovery/item/sample5",
			Author:         "rational-shopper",
			PublishTime:    publish(now.AddDate(0, 0, -1)),
			CrawlTime:      now.AddDate(0, 0, -1),
			HotScore:       45000,
			Sentiment:      SentimentNeutral,
			SentimentScore: -0.25,
			Category:       CategoryPrice,
			Status:         StatusUnprocessed,
		},
	}

	for i := range samples {
		if err := store.Insert(ctx, &samples[i]); err != nil {
			return fmt.Errorf("seed sample %d: %w", i, err)
		}
	}
	return nil
}
