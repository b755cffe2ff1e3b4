package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestration
		"Starting run: %d workers, %s output %s":         "実行開始: ワーカー %d, %s 出力 %s",
		"Run completed: %d frames written to %s":         "実行完了: %[2]s に %[1]d フレームを書き込みました",
		"Interrupted, aborting writers...":               "中断されました。ライターを停止中...",
		"Memory budget allows %d images in flight":       "メモリ予算で同時に保持できる画像は %d 枚です",
		"Frame %d could not be produced, skipping: %s":   "フレーム %d を生成できませんでした。スキップします: %s",
		"Output saved to %s":                             "出力を %s に保存しました",
		"Summary saved to %s":                            "サマリーを %s に保存しました",
		"%d memory slot(s) still reserved after the run": "実行後もメモリスロットが %d 個予約されたままです",

		// Sources and containers
		"Cannot decode %s, frame %d skipped: %v":          "%s をデコードできません。フレーム %d をスキップしました: %v",
		"Sequence closed with %d frames, %d were written": "シーケンスは %d フレームで閉じられましたが、書き込まれたのは %d フレームです",

		// Throttle
		"Number of images allowed in the write queue: %d (zero or less is unlimited)": "書き込みキューに許可される画像数: %d（0以下は無制限）",
		"Number of outputs: %d":                                                       "出力数: %d",
		"Memory slot obtained after waiting":                                          "待機の後にメモリスロットを取得しました",
		"Memory slot released without a reservation":                                  "予約なしでメモリスロットが解放されました",
		"Sequence %s is not part of the %d synchronized outputs":                      "シーケンス %s は %d 個の同期出力に含まれていません",
		"Inconsistent index in memory management (%d for expected %d)":                "メモリ管理のインデックスが不整合です（期待値 %[2]d に対して %[1]d）",
		"Inconsistent index in memory management (%d after %d)":                       "メモリ管理のインデックスが不整合です（%[2]d の後に %[1]d）",

		// Writer
		"Writer started with %d expected frames":                                          "ライター開始: 期待フレーム数 %d",
		"Writer started with an unknown frame count":                                      "ライター開始: フレーム数不明",
		"Saving image %d, %d layer(s), %dx%d pixels, %d bits":                             "画像 %d を保存中: %d レイヤー, %dx%d ピクセル, %d ビット",
		"Cannot add an image with different properties to an existing sequence":           "既存のシーケンスに異なる特性の画像は追加できません",
		"Invalid image index %d requested for write (current %d), aborting file creation": "不正な画像インデックス %d（現在 %d）。ファイル作成を中止します",
		"Image index %d submitted twice, aborting file creation":                          "画像インデックス %d が二重に送信されました。ファイル作成を中止します",
		"Image %d released twice":                                                         "画像 %d が二重に解放されました",
		"Failed to write image %d: %s":                                                    "画像 %d の書き込みに失敗しました: %s",
		"Incomplete file creation: %d file(s) remained to be written":                     "ファイル作成が不完全です: %d 件が未書き込みのまま残りました",
		"%d image(s) received beyond the expected count were dropped":                     "期待数を超えて受信した %d 枚の画像を破棄しました",
		"Saved %d images in the sequence":                                                 "シーケンスに %d 枚の画像を保存しました",
		"Write aborted, expected %d images, got %d":                                       "書き込みが中断されました。期待 %d 枚, 実際 %d 枚",
	})
}
