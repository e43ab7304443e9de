package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"strconv"
	"strings"

	"github.com/arminHadzicAPL/scrollmedia/internal/device"
	"github.com/arminHadzicAPL/scrollmedia/internal/log"
	"github.com/arminHadzicAPL/scrollmedia/internal/player"
	"github.com/arminHadzicAPL/scrollmedia/internal/preload"
	"github.com/arminHadzicAPL/scrollmedia/internal/scene"
	"github.com/arminHadzicAPL/scrollmedia/internal/trigger"
)

const defaultUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36"

// Each bound element is laid out this many viewports tall.
const regionViewports = 3

type bound struct {
	media   *player.Media
	surface *player.SimSurface
	overlay *player.SimOverlay
	loader  *preload.Loader
}

func main() {
	scenePtr := flag.String("scene", "scene.yaml", "Путь к YAML-файлу сцены")
	uaPtr := flag.String("ua", defaultUA, "User-agent для классификации устройства")
	viewportPtr := flag.String("viewport", "1280x720", "Размер вьюпорта WxH")
	ratioPtr := flag.Float64("pixel-ratio", 1.0, "Плотность пикселей устройства")
	stepsPtr := flag.Int("steps", 20, "Число шагов прокрутки")
	fromPtr := flag.Float64("from", 0, "Начало прохода (доля прокрутки страницы)")
	toPtr := flag.Float64("to", 1, "Конец прохода (доля прокрутки страницы)")
	bufferPtr := flag.Float64("buffered", 1, "Доля видео, считающаяся буферизованной (0 - путь деградации)")
	preloadPtr := flag.Bool("preload", false, "Запустить последовательную загрузку fallback-изображений")
	warmPtr := flag.Bool("warm", false, "Прогреть fallback-изображения параллельно перед проходом")
	verbosePtr := flag.Bool("v", false, "Подробный лог")

	flag.Parse()

	level := "info"
	if *verbosePtr {
		level = "debug"
	}
	log.Configure(log.Config{Level: level})

	sc, err := scene.ReadScene(*scenePtr)
	if err != nil {
		stdlog.Fatalf("[-] Ошибка чтения сцены: %v", err)
	}
	if len(sc.Bindings) == 0 {
		stdlog.Fatalf("[-] Ошибка: сцена %s не содержит привязок", *scenePtr)
	}

	width, height, err := parseViewport(*viewportPtr)
	if err != nil {
		stdlog.Fatalf("[-] Ошибка разбора вьюпорта: %v", err)
	}

	class := device.New(*uaPtr, func() device.Viewport {
		return device.Viewport{Width: width, Height: height, PixelRatio: *ratioPtr}
	})
	fmt.Printf("[*] Устройство: os=%s breakpoint=%s classes=%s\n",
		class.OS(), class.Breakpoint(), strings.Join(class.StateClasses(), " "))

	ctx := context.Background()
	tracker := trigger.NewTracker(float64(width), float64(height))

	var bounds []bound
	top := float64(height)
	for i := range sc.Bindings {
		b := sc.Bindings[i]
		surface := &player.SimSurface{}
		overlay := &player.SimOverlay{}
		loader := preload.New(&b, class.IsMobile(), preload.Options{})

		m, err := player.Bind(b, player.Deps{
			Surface: surface,
			Overlay: overlay,
			Loader:  loader,
			Class:   class,
		})
		if err != nil {
			stdlog.Fatalf("[-] Ошибка привязки %s: %v", b.ID, err)
		}
		surface.BufferTo(b.Duration() * *bufferPtr)

		if *warmPtr {
			if err := loader.WarmAll(ctx, 4); err != nil {
				lg := log.WithComponent("scrollsim")
				lg.Warn().Err(err).Str("binding", b.ID).Msg("прогрев не удался")
			}
		}
		if *preloadPtr {
			go loader.Start(ctx)
		}

		regionHeight := float64(height) * regionViewports
		tracker.Register(trigger.Region{Top: top, Height: regionHeight}, m)
		top += regionHeight

		fmt.Printf("[*] Привязка %s: rendition=%dpx url=%s\n", m.ID(), m.Rendition(), m.URL())
		bounds = append(bounds, bound{media: m, surface: surface, overlay: overlay, loader: loader})
	}

	pageHeight := top + float64(height)
	maxScroll := pageHeight - float64(height)

	steps := *stepsPtr
	if steps < 1 {
		steps = 1
	}
	for s := 0; s <= steps; s++ {
		frac := *fromPtr + (*toPtr-*fromPtr)*float64(s)/float64(steps)
		tracker.Scroll(frac * maxScroll)
		tracker.Tick()

		for _, bd := range bounds {
			d := bd.media.Applied()
			fmt.Printf("scroll=%.3f %-12s p=%.3f layer=%-8s frame=%-4d image=%d\n",
				frac, bd.media.ID(), d.Percent, d.Layer, d.Frame, d.ImageIndex)
		}
	}
}

func parseViewport(s string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("ожидается WxH, получено %q", s)
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return 0, 0, err
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return 0, 0, err
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("размеры должны быть положительными: %q", s)
	}
	return width, height, nil
}
