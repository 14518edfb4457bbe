package generation

// 各阶段在进度条上的锚点
const (
	progressContextBuilt = 5
	progressStreamFloor  = 10
	progressStreamCeil   = 95
	progressCommitting   = 97
)

// progressEstimator 按已产出 rune 数估算流式阶段进度
// 估算值只会随产出增长，真实产出超过预估时停在流式上限。
type progressEstimator struct {
	totalRunes int
}

func newProgressEstimator(totalRunes, fallback int) *progressEstimator {
	if totalRunes <= 0 {
		totalRunes = fallback
	}
	if totalRunes <= 0 {
		totalRunes = 1
	}
	return &progressEstimator{totalRunes: totalRunes}
}

// estimate 把已产出 rune 数映射到 [progressStreamFloor, progressStreamCeil]
func (e *progressEstimator) estimate(producedRunes int) int {
	if producedRunes <= 0 {
		return progressStreamFloor
	}
	span := progressStreamCeil - progressStreamFloor
	p := progressStreamFloor + producedRunes*span/e.totalRunes
	if p > progressStreamCeil {
		p = progressStreamCeil
	}
	return p
}
