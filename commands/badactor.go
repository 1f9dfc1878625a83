package commands

import (
	"errors"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/sentry-go"

	"janitor-bot/broadcast"
	"janitor-bot/embeds"
	"janitor-bot/models"
)

// confirmWindow is how long a report confirmation stays clickable.
const confirmWindow = 10 * time.Second

// pendingReport is a report waiting for its confirm button.
type pendingReport struct {
	target      *discordgo.User
	actorType   models.ActorType
	attachment  *discordgo.MessageAttachment
	explanation string
	guildID     string
	reporterID  string
}

// BadActor handles every /badactor subcommand.
func (c *Command) BadActor(s *discordgo.Session, i *discordgo.InteractionCreate) {
	dbUser := c.requireWhitelisted(s, i)
	if dbUser == nil {
		return
	}

	if i.GuildID == c.Config.AdminServerID {
		c.edit(s, i, "This command is not available in the admin server.")
		return
	}

	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return
	}
	sub := data.Options[0]
	opts := options(sub.Options)

	switch sub.Name {
	case "display_latest":
		c.displayLatest(s, i, intOption(opts, "amount", 5), stringOption(opts, "filter"))
		return
	case "display_by_user":
		var target *discordgo.User
		if opt, ok := opts["user"]; ok {
			target = opt.UserValue(s)
		}
		c.displayByUser(s, i, target)
		return
	case "display_by_id":
		c.displayByID(s, i, uint(intOption(opts, "id", 0)))
		return
	}

	if dbUser.UserType != models.UserTypeReporter {
		log.Printf("[command] user %s attempted /badactor %s but is only whitelisted as a listener", dbUser.ID, sub.Name)
		c.edit(s, i, "You are not allowed to create or edit reports.")
		return
	}

	switch sub.Name {
	case "report":
		c.startReport(s, i, opts)
	case "deactivate":
		c.deactivate(s, i, uint(intOption(opts, "id", 0)), stringOption(opts, "reason"))
	case "reactivate":
		c.reactivate(s, i, uint(intOption(opts, "id", 0)), stringOption(opts, "reason"))
	case "add_screenshot":
		c.addScreenshot(s, i, uint(intOption(opts, "id", 0)), attachmentOption(i, opts, "screenshot"))
	case "replace_screenshot":
		c.replaceScreenshot(s, i, uint(intOption(opts, "id", 0)), attachmentOption(i, opts, "screenshot"))
	case "update_explanation":
		c.updateExplanation(s, i, uint(intOption(opts, "id", 0)), stringOption(opts, "explanation"))
	}
}

// startReport validates the report and asks for confirmation. The actual
// mutation happens when the confirm button is pressed.
func (c *Command) startReport(s *discordgo.Session, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	userOpt, ok := opts["user"]
	if !ok {
		c.edit(s, i, "Cannot find this user. You either made a typo or the user does not exist (anymore).")
		return
	}
	target := userOpt.UserValue(s)
	if target == nil {
		c.edit(s, i, "Cannot find this user. You either made a typo or the user does not exist (anymore).")
		return
	}

	actorType := models.ActorType(stringOption(opts, "type"))
	if !actorType.Valid() {
		c.edit(s, i, "You must provide a valid type of bad behaviour.")
		return
	}

	attachment := attachmentOption(i, opts, "screenshot")
	explanation := stringOption(opts, "explanation")

	activeCase, err := c.BadActors.ActiveCase(target.ID)
	if err != nil {
		log.Printf("[command] failed to get the active case for %s: %v", target.ID, err)
		sentry.CaptureException(err)
		c.edit(s, i, "Failed to check for an active case in the database.")
		return
	}
	if activeCase != nil {
		c.replyEntries(s, i, []models.BadActor{*activeCase}, "This user already has an active case.")
		return
	}

	if attachment == nil && explanation == "" {
		c.edit(s, i, "You must provide a screenshot or an explanation.")
		return
	}

	reporter := interactionUser(i)
	c.setPending(reporter.ID, &pendingReport{
		target:      target,
		actorType:   actorType,
		attachment:  attachment,
		explanation: explanation,
		guildID:     i.GuildID,
		reporterID:  reporter.ID,
	})

	c.editComplex(s, i, &discordgo.WebhookEdit{
		Content:    ptr("Is this the user you want to report?"),
		Embeds:     &[]*discordgo.MessageEmbed{embeds.UserInfo(target)},
		Components: &[]discordgo.MessageComponent{confirmCancelRow()},
	})
}

// handleComponent resolves the confirm/cancel buttons of a pending report.
func (c *Command) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	user := interactionUser(i)
	customID := i.MessageComponentData().CustomID

	pending := c.takePending(user.ID)
	if pending == nil {
		c.respondUpdate(s, i, "This confirmation has expired.")
		return
	}

	switch customID {
	case "cancel":
		c.respondUpdate(s, i, "Cancelled the report.")
	case "confirm":
		c.respondUpdate(s, i, "Reporting user to the community and taking action...")
		c.fileReport(s, i, pending)
	}
}

// fileReport persists the confirmed report and kicks off the broadcast.
func (c *Command) fileReport(s *discordgo.Session, i *discordgo.InteractionCreate, pending *pendingReport) {
	screenshot := ""
	if pending.attachment != nil {
		ref, err := c.Screenshots.Save(pending.attachment.URL, pending.attachment.Filename, pending.target.ID)
		if err != nil {
			log.Printf("[command] failed to save screenshot: %v", err)
			sentry.CaptureException(err)
			c.editFollowup(s, i, "Failed to save screenshot.")
			return
		}
		screenshot = ref
	}

	actor, err := c.BadActors.Create(models.BadActor{
		UserID:              pending.target.ID,
		ActorType:           pending.actorType,
		ScreenshotProof:     screenshot,
		Explanation:         pending.explanation,
		OriginallyCreatedIn: pending.guildID,
		LastChangedBy:       pending.reporterID,
	})
	if errors.Is(err, models.ErrActiveCaseExists) {
		c.replyEntries(s, i, []models.BadActor{*actor}, "This user already has an active case.")
		return
	}
	if err != nil {
		log.Printf("[command] failed to create a bad actor entry for %s: %v", pending.target.ID, err)
		sentry.CaptureException(err)
		c.editFollowup(s, i, "Failed to create a bad actor entry in the database.")
		return
	}

	log.Printf("[command] user %s reported user %s as a bad actor in %s", pending.reporterID, pending.target.ID, pending.guildID)
	c.replyEntries(s, i, []models.BadActor{*actor}, "The user has been reported as a bad actor.")

	go c.Broadcaster.Broadcast(actor, broadcast.KindReport)
}

func (c *Command) deactivate(s *discordgo.Session, i *discordgo.InteractionCreate, id uint, reason string) {
	if reason == "" {
		c.edit(s, i, "You must provide a reason for deactivating the report.")
		return
	}

	actor, ok := c.getEntry(s, i, id)
	if !ok {
		return
	}
	if !actor.IsActive {
		c.edit(s, i, "This entry is already deactivated.")
		return
	}

	updated, err := c.BadActors.Deactivate(id, reason, interactionUser(i).ID)
	if err != nil {
		log.Printf("[command] failed to deactivate entry %d: %v", id, err)
		sentry.CaptureException(err)
		c.edit(s, i, "Failed to deactivate the entry.")
		return
	}

	c.replyEntries(s, i, []models.BadActor{*updated}, "This entry has been deactivated.")
	go c.Broadcaster.Broadcast(updated, broadcast.KindDeactivate)
}

func (c *Command) reactivate(s *discordgo.Session, i *discordgo.InteractionCreate, id uint, reason string) {
	if reason == "" {
		c.edit(s, i, "You must provide a reason for reactivating the report.")
		return
	}

	actor, ok := c.getEntry(s, i, id)
	if !ok {
		return
	}
	if actor.IsActive {
		c.edit(s, i, "This entry is already activated.")
		return
	}

	updated, err := c.BadActors.Reactivate(id, reason, interactionUser(i).ID)
	if err != nil {
		log.Printf("[command] failed to reactivate entry %d: %v", id, err)
		sentry.CaptureException(err)
		c.edit(s, i, "Failed to reactivate the entry.")
		return
	}

	c.replyEntries(s, i, []models.BadActor{*updated}, "This entry has been reactivated.")
	go c.Broadcaster.Broadcast(updated, broadcast.KindReactivate)
}

func (c *Command) addScreenshot(s *discordgo.Session, i *discordgo.InteractionCreate, id uint, attachment *discordgo.MessageAttachment) {
	actor, ok := c.getEntry(s, i, id)
	if !ok {
		return
	}
	if !actor.IsActive {
		c.edit(s, i, "This entry is deactivated. You cannot add a screenshot to it.")
		return
	}
	if actor.ScreenshotProof != "" {
		c.edit(s, i, "This entry already has a screenshot. If you want to replace it, use the /badactor replace_screenshot command.")
		return
	}
	if attachment == nil {
		c.edit(s, i, "You must provide a screenshot.")
		return
	}

	ref, err := c.Screenshots.Save(attachment.URL, attachment.Filename, actor.UserID)
	if err != nil {
		log.Printf("[command] failed to save screenshot: %v", err)
		c.edit(s, i, "Failed to save screenshot.")
		return
	}

	updated, err := c.BadActors.UpdateScreenshot(id, ref, interactionUser(i).ID)
	if err != nil {
		log.Printf("[command] failed to update the screenshot for entry %d: %v", id, err)
		sentry.CaptureException(err)
		c.edit(s, i, "Failed to update the screenshot.")
		return
	}

	c.replyEntries(s, i, []models.BadActor{*updated}, "The screenshot has been added.")
	go c.Broadcaster.Broadcast(updated, broadcast.KindAddScreenshot)
}

func (c *Command) replaceScreenshot(s *discordgo.Session, i *discordgo.InteractionCreate, id uint, attachment *discordgo.MessageAttachment) {
	actor, ok := c.getEntry(s, i, id)
	if !ok {
		return
	}
	if !actor.IsActive {
		c.edit(s, i, "This entry is deactivated. You cannot add a screenshot to it.")
		return
	}
	if actor.ScreenshotProof == "" {
		c.edit(s, i, "This entry does not have a screenshot yet. Please use /badactor add_screenshot instead.")
		return
	}
	if attachment == nil {
		c.edit(s, i, "You must provide a screenshot.")
		return
	}

	ref, err := c.Screenshots.Replace(attachment.URL, attachment.Filename, actor.UserID, actor.ScreenshotProof)
	if err != nil {
		log.Printf("[command] failed to save screenshot: %v", err)
		c.edit(s, i, "Failed to save screenshot.")
		return
	}

	updated, err := c.BadActors.UpdateScreenshot(id, ref, interactionUser(i).ID)
	if err != nil {
		log.Printf("[command] failed to update the screenshot for entry %d: %v", id, err)
		sentry.CaptureException(err)
		c.edit(s, i, "Failed to update the screenshot.")
		return
	}

	c.replyEntries(s, i, []models.BadActor{*updated}, "The screenshot has been replaced.")
	go c.Broadcaster.Broadcast(updated, broadcast.KindReplaceScreenshot)
}

func (c *Command) updateExplanation(s *discordgo.Session, i *discordgo.InteractionCreate, id uint, explanation string) {
	if explanation == "" {
		c.edit(s, i, "You must provide an explanation.")
		return
	}

	actor, ok := c.getEntry(s, i, id)
	if !ok {
		return
	}
	if !actor.IsActive {
		c.edit(s, i, "This entry is deactivated. You cannot add an explanation to it.")
		return
	}

	updated, err := c.BadActors.UpdateExplanation(id, explanation, interactionUser(i).ID)
	if err != nil {
		log.Printf("[command] failed to update the explanation for entry %d: %v", id, err)
		sentry.CaptureException(err)
		c.edit(s, i, "Failed to update the explanation.")
		return
	}

	c.replyEntries(s, i, []models.BadActor{*updated}, "The explanation has been added or updated.")
	go c.Broadcaster.Broadcast(updated, broadcast.KindUpdateExplanation)
}

func (c *Command) displayLatest(s *discordgo.Session, i *discordgo.InteractionCreate, amount int64, filter string) {
	if amount < 1 || amount > 10 {
		c.edit(s, i, "The amount must be between 1 and 10.")
		return
	}
	if filter == "" {
		filter = "all"
	}

	actors, err := c.BadActors.Latest(int(amount), filter)
	if err != nil {
		log.Printf("[command] failed to get bad actors from the database: %v", err)
		sentry.CaptureException(err)
		c.edit(s, i, "Failed to get bad actors from the database.")
		return
	}
	if len(actors) == 0 {
		c.edit(s, i, "There are no bad actors in the database.")
		return
	}

	c.replyEntries(s, i, actors, "")
}

func (c *Command) displayByUser(s *discordgo.Session, i *discordgo.InteractionCreate, user *discordgo.User) {
	if user == nil {
		c.edit(s, i, "Cannot find this user. You either made a typo or the user does not exist (anymore).")
		return
	}

	actors, err := c.BadActors.ByUser(user.ID)
	if err != nil {
		log.Printf("[command] failed to get bad actors from the database: %v", err)
		sentry.CaptureException(err)
		c.edit(s, i, "Failed to get bad actors from the database.")
		return
	}
	if len(actors) == 0 {
		c.edit(s, i, "This user has no entries.")
		return
	}

	c.replyEntries(s, i, actors, "")
}

func (c *Command) displayByID(s *discordgo.Session, i *discordgo.InteractionCreate, id uint) {
	actor, ok := c.getEntry(s, i, id)
	if !ok {
		return
	}
	c.replyEntries(s, i, []models.BadActor{*actor}, "")
}

func (c *Command) getEntry(s *discordgo.Session, i *discordgo.InteractionCreate, id uint) (*models.BadActor, bool) {
	actor, err := c.BadActors.ByID(id)
	if err != nil {
		log.Printf("[command] failed to get bad actor %d from the database: %v", id, err)
		c.edit(s, i, "This entry does not exist.")
		return nil, false
	}
	return actor, true
}

// replyEntries edits the reply with one embed per entry, attaching
// screenshots where they exist.
func (c *Command) replyEntries(s *discordgo.Session, i *discordgo.InteractionCreate, actors []models.BadActor, message string) {
	entryEmbeds := make([]*discordgo.MessageEmbed, 0, len(actors))
	var files []*discordgo.File

	for idx := range actors {
		actor := &actors[idx]
		embed := embeds.BadActor(c.Gateway, actor, embeds.NeutralColor)
		if attachment := embeds.Screenshot(c.Screenshots.Dir, actor); attachment != nil {
			embed.Image = &discordgo.MessageEmbedImage{URL: "attachment://" + attachment.Name}
			files = append(files, attachment.File())
		}
		entryEmbeds = append(entryEmbeds, embed)
	}

	edit := &discordgo.WebhookEdit{
		Embeds: &entryEmbeds,
		Files:  files,
	}
	if message != "" {
		edit.Content = &message
	}
	c.editComplex(s, i, edit)
}

func (c *Command) setPending(userID string, pending *pendingReport) {
	c.mu.Lock()
	if c.pending == nil {
		c.pending = make(map[string]*pendingReport)
	}
	c.pending[userID] = pending
	c.mu.Unlock()

	time.AfterFunc(confirmWindow, func() {
		c.mu.Lock()
		if c.pending[userID] == pending {
			delete(c.pending, userID)
		}
		c.mu.Unlock()
	})
}

func (c *Command) takePending(userID string) *pendingReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	pending := c.pending[userID]
	delete(c.pending, userID)
	return pending
}

// respondUpdate answers a button press by replacing the prompt message.
func (c *Command) respondUpdate(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Embeds:     []*discordgo.MessageEmbed{},
			Components: []discordgo.MessageComponent{},
		},
	})
	if err != nil {
		log.Printf("[command] failed to respond to button press: %v", err)
		sentry.CaptureException(err)
	}
}

// editFollowup edits the message a button press already updated.
func (c *Command) editFollowup(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	c.editComplex(s, i, &discordgo.WebhookEdit{Content: &content})
}

func confirmCancelRow() discordgo.MessageComponent {
	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Confirm", Style: discordgo.SuccessButton, CustomID: "confirm"},
			discordgo.Button{Label: "Cancel", Style: discordgo.DangerButton, CustomID: "cancel"},
		},
	}
}

func ptr(s string) *string {
	return &s
}
