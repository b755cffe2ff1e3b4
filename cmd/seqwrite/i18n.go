// Package main provides localization for the seqwrite CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Input":            "入力",
		"Output":           "出力先",
		"Processing":       "処理",
		"Encoding":         "エンコード",
		"Synthetic frames": "合成フレーム",
		"Debug":            "デバッグ",
		"Logging":          "ログ",

		// Commands
		"Write image sequences into single-file containers":        "画像シーケンスを単一ファイルのコンテナに書き込む",
		"Convert a directory of PNG/JPEG images into a sequence":   "PNG/JPEG画像のディレクトリをシーケンスに変換",
		"Write a generated star field sequence":                    "生成した星野のシーケンスを書き込む",
		"Show the frame count and geometry of a sequence file":     "シーケンスファイルのフレーム数とサイズを表示",
		"Show version information":                                 "バージョン情報を表示",
		"seqwrite version %s":                                      "seqwrite バージョン %s",
		"convert requires exactly one input directory":             "convert には入力ディレクトリを1つだけ指定してください",
		"inspect requires exactly one file":                        "inspect にはファイルを1つだけ指定してください",
		"Interrupted, shutting down...":                            "中断されました。終了処理中...",

		// Flags
		"YAML configuration file":                                  "YAML設定ファイル",
		"Sample depth (16 or 32f)":                                 "サンプル深度（16 または 32f）",
		"Maximum number of frames to take from the input":          "入力から取得する最大フレーム数",
		"Output sequence file path (required)":                     "出力シーケンスファイルパス（必須）",
		"Container format (fitseq, ser, mp4); guessed from the output extension when omitted": "コンテナ形式（fitseq, ser, mp4）。省略時は出力ファイルの拡張子から判断",
		"Allow FITS frames of different sizes":                     "FITSでサイズの異なるフレームを許可",
		"Also write a reduced preview sequence to this path":       "縮小プレビューシーケンスもこのパスに書き込む",
		"Container format of the preview":                          "プレビューのコンテナ形式",
		"Width of the preview frames in pixels":                    "プレビューフレームの幅（ピクセル）",
		"Output execution summary to file (Markdown format)":       "実行サマリーをファイルに出力（Markdown形式）",
		"Processing operation (normalize, invert, bin2, gray); repeatable": "処理操作（normalize, invert, bin2, gray）。複数指定可",
		"Number of producer goroutines":                            "生成ゴルーチン数",
		"Maximum images held in memory (0 = from memory budget, negative = unlimited)": "メモリに保持する最大画像数（0 = メモリ予算から算出, 負 = 無制限）",
		"Memory budget in MiB for images in flight":                "処理中の画像に使うメモリ予算（MiB）",
		"Frame rate of MP4 outputs":                                "MP4出力のフレームレート",
		"JPEG quality of MP4 samples (1-100)":                      "MP4サンプルのJPEG品質（1-100）",
		"Observer name stored in SER headers":                      "SERヘッダーに記録する観測者名",
		"Telescope name stored in SER headers":                     "SERヘッダーに記録する望遠鏡名",
		"Save every written frame as PNG":                          "書き込んだ全フレームをPNGで保存",
		"Directory for debug output":                               "デバッグ出力先ディレクトリ",
		"Log level (debug, info, warn, error)":                     "ログレベル（debug, info, warn, error）",
		"Suppress all log output":                                  "すべてのログ出力を抑制",
		"Frame width in pixels":                                    "フレームの幅（ピクセル）",
		"Frame height in pixels":                                   "フレームの高さ（ピクセル）",
		"1 for mono, 3 for colour":                                 "モノクロは1、カラーは3",
		"Number of frames (0 = until interrupted)":                 "フレーム数（0 = 中断まで）",
		"Number of stars":                                          "星の数",
		"Random seed for star placement":                           "星の配置の乱数シード",
		"Make every Nth frame missing":                             "N フレームごとに欠落させる",
		"Draw the frame number on each frame":                      "各フレームにフレーム番号を描画",

		// Summary
		"Summary saved to %s":         "サマリーを %s に保存しました",
		"Failed to write summary: %s": "サマリーの書き込みに失敗しました: %s",

		// Summary content
		"Run Summary":      "実行サマリー",
		"Source":           "入力",
		"Requested Frames": "要求フレーム数",
		"Loaded Frames":    "読み込みフレーム数",
		"Skipped Frames":   "欠落フレーム数",
		"Unknown":          "不明",
		"Outputs":          "出力",
		"Name":             "名前",
		"Path":             "パス",
		"Container":        "コンテナ",
		"Status":           "状態",
		"Written":          "書き込み",
		"Holes":            "欠番",
		"Missing":          "不足",
		"File Size":        "ファイルサイズ",
		"Error":            "エラー",
		"Timing":           "時間",
		"Duration":         "所要時間",
		"Throughput":       "スループット",
		"Interrupted":      "中断",
		"Yes":              "はい",
		"Settings":         "設定",
		"Workers":          "ワーカー",
		"Images in Flight": "同時保持画像数",
		"Unlimited":        "無制限",
		"Memory Budget":    "メモリ予算",
		"Operations":       "処理",
		"Preview Width":    "プレビュー幅",
		"Generated by":     "生成",
		"ok":               "正常",
		"incomplete":       "不完全",
		"write error":      "書き込みエラー",

		// Inspect
		"%s: %s sequence, %d frames":                       "%s: %s シーケンス, %d フレーム",
		"First frame: %dx%d, %d channel(s), %d bits":      "先頭フレーム: %dx%d, %d チャンネル, %d ビット",
		"Frames have different sizes":                      "フレームのサイズが異なります",
	})
}
