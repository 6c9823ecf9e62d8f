package webhook

import (
	"crypto/hmac"
	// X-Hub-Signatureヘッダー（sha1形式）との互換のために必要。
	"crypto/sha1" //nolint:gosec
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"
)

// ヘッダーで指定可能なHMACアルゴリズム名。
const (
	// AlgorithmSHA1 はX-Hub-Signatureヘッダーで使用される旧形式。
	AlgorithmSHA1 = "sha1"
	// AlgorithmSHA256 はX-Hub-Signature-256ヘッダーで使用される推奨形式。
	AlgorithmSHA256 = "sha256"
)

// Verify は受信したWebhookペイロードの署名を検証する。
// signatureHeaderは "アルゴリズム=16進ダイジェスト" 形式（例: "sha1=123abc..."）。
// ヘッダーが空・形式不正・未対応アルゴリズム・ダイジェスト不一致のいずれの
// 場合もfalseを返す。ヘッダーの欠落を成功扱いすることは決してない。
//
// ダイジェストの比較はタイミング攻撃を防ぐため定数時間で行う。
func Verify(rawPayload []byte, signatureHeader, secret string) bool {
	algorithm, theirDigest, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return false
	}

	mac, err := computeHMAC(rawPayload, algorithm, secret)
	if err != nil {
		return false
	}

	// hmac.Equalは定数時間比較。文字列の==比較はタイミングサイドチャネルに
	// なるため使用してはならない。
	return hmac.Equal(theirDigest, mac)
}

// Sign はペイロードに対する署名ヘッダー値を生成する。
// Webhook送信側のシミュレーションとテストで使用する。
func Sign(rawPayload []byte, algorithm, secret string) (string, error) {
	mac, err := computeHMAC(rawPayload, algorithm, secret)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s=%s", algorithm, hex.EncodeToString(mac)), nil
}

// parseSignatureHeader は署名ヘッダーをアルゴリズム名とダイジェストに分解する。
func parseSignatureHeader(header string) (algorithm string, digest []byte, err error) {
	if header == "" {
		return "", nil, fmt.Errorf("署名ヘッダーが存在しない")
	}

	algorithm, hexDigest, found := strings.Cut(header, "=")
	if !found || algorithm == "" || hexDigest == "" {
		return "", nil, fmt.Errorf("署名ヘッダーの形式が不正: %q", header)
	}

	digest, err = hex.DecodeString(hexDigest)
	if err != nil {
		return "", nil, fmt.Errorf("ダイジェストの16進デコードに失敗: %w", err)
	}
	return algorithm, digest, nil
}

// computeHMAC は指定アルゴリズムでペイロードのHMACを計算する。
func computeHMAC(rawPayload []byte, algorithm, secret string) ([]byte, error) {
	var newHash func() hash.Hash
	switch algorithm {
	case AlgorithmSHA1:
		newHash = sha1.New
	case AlgorithmSHA256:
		newHash = sha256.New
	default:
		return nil, fmt.Errorf("未対応のHMACアルゴリズム: %q", algorithm)
	}

	mac := hmac.New(newHash, []byte(secret))
	mac.Write(rawPayload)
	return mac.Sum(nil), nil
}
