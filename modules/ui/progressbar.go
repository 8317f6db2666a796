package ui

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/uuid"
	"github.com/gookit/color"
	"github.com/pterm/pterm"
)

type progressBar struct {
	ID                  uuid.UUID
	Title               string
	titleStyle          *pterm.Style
	barStyle            *pterm.Style
	Current, Total      int64
	Percent             float32
	RoundingFactor      time.Duration
	Started, Lastupdate time.Time
	barCharacter        string
	lastCharacter       string
	barFiller           string

	Done bool

	writer io.Writer
}

var (
	pbLock       sync.Mutex
	progressbars = map[*progressBar]struct{}{}
)

func ProgressBar(title string, max int) *progressBar {
	if max == 0 {
		max = 1 // avoid division by zero in pterm
	}

	id, _ := uuid.NewV7()
	pb := progressBar{
		ID:    id,
		Title: title,

		Total:          int64(max),
		RoundingFactor: time.Second,
		barCharacter:   "█",
		lastCharacter:  "█",
		barFiller:      " ",
	}
	pb.titleStyle = pterm.NewStyle()
	pb.barStyle = pterm.NewStyle()

	pb.Started = time.Now()

	pbLock.Lock()
	progressbars[&pb] = struct{}{}
	pbLock.Unlock()

	return &pb
}

func (pb *progressBar) Add(i int) {
	atomic.AddInt64(&pb.Current, int64(i))
	pb.update()
}

func (pb *progressBar) Set(i int) {
	atomic.StoreInt64(&pb.Current, int64(i))
	pb.update()
}

func (pb *progressBar) Finish() {
	pbLock.Lock()
	delete(progressbars, pb)
	pbLock.Unlock()

	pb.Done = true
}

func (pb *progressBar) update() {
	if time.Since(pb.Lastupdate) < 1*time.Second {
		return
	}

	outputMutex.Lock()

	clearneeded = true
	pb.Lastupdate = time.Now()

	var before string
	var after string

	width := pterm.GetTerminalWidth()

	var currentPercentage float32
	if pb.Total > 0 {
		currentPercentage = float32(pb.Current) * 100 / float32(pb.Total)
	}

	if currentPercentage > 100 {
		currentPercentage = 100
	}

	pb.Percent = currentPercentage

	decoratorCount := pterm.Gray("[") + pterm.LightWhite(pb.Current) + pterm.Gray("/") + pterm.LightWhite(pb.Total) + pterm.Gray("]")

	decoratorCurrentPercentage := color.RGB(pterm.NewRGB(255, 0, 0).Fade(0, float32(pb.Total), float32(pb.Current), pterm.NewRGB(0, 255, 0)).GetValues()).
		Sprint(fmt.Sprintf("%.2f%%", currentPercentage))

	decoratorTitle := pb.titleStyle.Sprint(pb.Title)

	before += decoratorTitle + " "
	before += decoratorCount + " "

	after += " "
	after += decoratorCurrentPercentage + " "
	after += "| " + time.Since(pb.Started).Round(pb.RoundingFactor).String()

	barMaxLength := width - len(pterm.RemoveColorFromString(before)) - len(pterm.RemoveColorFromString(after)) - 1

	barCurrentLength := int(math.Round(float64(currentPercentage * float32(barMaxLength) / 100)))

	var barFiller string
	if barMaxLength-barCurrentLength > 0 {
		barFiller = strings.Repeat(pb.barFiller, barMaxLength-barCurrentLength)
	}

	var bar string
	if pb.Total > 0 && barCurrentLength > 0 {
		bar = pb.barStyle.Sprint(strings.Repeat(pb.barCharacter, barCurrentLength)+pb.lastCharacter) + barFiller
	}

	pterm.Fprinto(pb.writer, before+bar+after)

	outputMutex.Unlock()
}
