package gemini

import "google.golang.org/genai"

// InlineBlobs は最初の候補に含まれるインラインデータを順番に取り出します。
func InlineBlobs(resp *genai.GenerateContentResponse) []*genai.Blob {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return nil
	}

	var blobs []*genai.Blob
	for _, part := range cand.Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		blobs = append(blobs, part.InlineData)
	}
	return blobs
}

// ResponseText はレスポンスのテキスト部分を返します。nil レスポンスは空文字になります。
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	return resp.Text()
}
